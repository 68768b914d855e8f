package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the dashboard reacts to.
type KeyMap struct {
	Quit    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding

	// coins
	Frame key.Binding

	// journal
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Reload key.Binding

	// simulator
	Market      key.Binding
	DaysUp      key.Binding
	DaysDown    key.Binding
	CapitalUp   key.Binding
	CapitalDown key.Binding
	UseAPI      key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next section")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev section")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),

		Frame: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "timeframe")),

		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "toggle form")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),

		Market:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "market")),
		DaysUp:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "days")),
		DaysDown:    key.NewBinding(key.WithKeys("-", "_")),
		CapitalUp:   key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "capital")),
		CapitalDown: key.NewBinding(key.WithKeys("[")),
		UseAPI:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "live data")),
	}
}

// helpLine renders the short help for the given bindings.
func helpLine(bs ...key.Binding) string {
	out := ""
	for _, b := range bs {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		if out != "" {
			out += "  "
		}
		out += h.Key + " " + h.Desc
	}
	return helpStyle.Render(out)
}
