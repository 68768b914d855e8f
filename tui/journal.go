package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KANG-Hyeong-uk/coin/internal/format"
	"github.com/KANG-Hyeong-uk/coin/journal"
)

// callTimeout bounds each request made on behalf of the journal section.
const callTimeout = 15 * time.Second

// journalDoneMsg is sent when a controller call finishes. The controller
// already holds the outcome; the message only triggers a redraw.
type journalDoneMsg struct {
	submit    bool
	submitted bool
}

// successExpiredMsg redraws once the success banner has timed out.
type successExpiredMsg struct{}

type journalView struct {
	ctrl   *journal.Controller
	form   *tradeForm
	cursor int
	// saving is set when enter is pressed, before the controller reports
	// Pending, and cleared when the submit finishes.
	saving bool
}

func newJournalView(ctrl *journal.Controller) *journalView {
	return &journalView{ctrl: ctrl, form: newTradeForm()}
}

func (v *journalView) load() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		_ = v.ctrl.Load(ctx)
		return journalDoneMsg{}
	}
}

func (v *journalView) submit(in journal.TradeInput) tea.Cmd {
	v.saving = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		err := v.ctrl.Submit(ctx, in)
		return journalDoneMsg{submit: true, submitted: err == nil}
	}
}

func (v *journalView) remove(tradeID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		_ = v.ctrl.Delete(ctx, tradeID)
		return journalDoneMsg{}
	}
}

func (v *journalView) done(msg journalDoneMsg) tea.Cmd {
	if msg.submit {
		v.saving = false
	}
	st := v.ctrl.Snapshot()
	if v.cursor >= len(st.Trades) {
		v.cursor = max(0, len(st.Trades)-1)
	}
	if msg.submitted && st.Editing == nil {
		v.form.reset()
	}
	if st.Success != "" {
		return tea.Tick(journal.SuccessTTL, func(time.Time) tea.Msg { return successExpiredMsg{} })
	}
	return nil
}

// capturesKeys reports whether the form has the keyboard.
func (v *journalView) capturesKeys() bool {
	return v.ctrl.Snapshot().FormOpen
}

func (v *journalView) update(msg tea.KeyMsg, keys KeyMap) tea.Cmd {
	st := v.ctrl.Snapshot()

	if st.FormOpen {
		switch msg.String() {
		case "tab", "down":
			return v.form.setFocus(v.form.focus + 1)
		case "shift+tab", "up":
			return v.form.setFocus(v.form.focus - 1)
		case "esc":
			if st.Editing != nil {
				v.ctrl.CancelEdit()
				v.form.reset()
			} else {
				v.ctrl.ToggleForm()
			}
			return nil
		case "enter":
			if st.Pending || v.saving {
				return nil
			}
			in, err := parseTradeForm(v.form.values())
			if err != nil {
				v.form.err = err.Error()
				return nil
			}
			v.form.err = ""
			return v.submit(in)
		}
		return v.form.update(msg)
	}

	switch {
	case key.Matches(msg, keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, keys.Down):
		if v.cursor < len(st.Trades)-1 {
			v.cursor++
		}
	case key.Matches(msg, keys.New):
		v.ctrl.ToggleForm()
		v.form.reset()
		return v.form.setFocus(0)
	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		if v.cursor < len(st.Trades) {
			t := st.Trades[v.cursor]
			v.ctrl.Edit(t)
			v.form.fill(t)
			return v.form.setFocus(0)
		}
	case key.Matches(msg, keys.Delete):
		if v.cursor < len(st.Trades) {
			return v.remove(st.Trades[v.cursor].ID)
		}
	case key.Matches(msg, keys.Reload):
		return v.load()
	case key.Matches(msg, keys.Back):
		v.ctrl.DismissError()
	}
	return nil
}

func (v *journalView) view() string {
	st := v.ctrl.Snapshot()

	var parts []string
	if st.Err != "" {
		parts = append(parts, errorStyle.Render("✗ "+st.Err))
	}
	if st.Success != "" {
		parts = append(parts, successStyle.Render("✓ "+st.Success))
	}

	parts = append(parts, renderStats(st.Stats))

	if st.FormOpen {
		parts = append(parts, v.form.view(st.Editing, st.Pending || v.saving))
	}

	switch {
	case st.Status == journal.StatusLoading && len(st.Trades) == 0:
		parts = append(parts, helpStyle.Render("loading…"))
	case len(st.Trades) == 0:
		parts = append(parts, helpStyle.Render("No trades recorded yet. Press n to add one."))
	default:
		parts = append(parts, renderTrades(st.Trades, v.cursor, st.Editing))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderStats(s journal.Statistics) string {
	cell := func(label, value string) string {
		return lipgloss.NewStyle().Width(16).Render(helpStyle.Render(label) + "\n" + value)
	}
	return panelStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		cell("Buys", fmt.Sprintf("%d", s.TotalBuyCount)),
		cell("Sells", fmt.Sprintf("%d", s.TotalSellCount)),
		cell("Avg buy", signed(s.AverageBuyReturn).Render(format.Percent(s.AverageBuyReturn))),
		cell("Avg sell", signed(s.AverageSellReturn).Render(format.Percent(s.AverageSellReturn))),
		cell("Avg total", signed(s.AverageTotalReturn).Render(format.Percent(s.AverageTotalReturn))),
	))
}

func renderTrades(trades []journal.Trade, cursor int, editing *journal.Trade) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-16s %-9s %-4s %14s %16s %9s  %s",
		"Date", "Market", "Side", "Quantity", "Price", "Return", "Notes")))
	for i, t := range trades {
		ret := "-"
		if t.ReturnRate != nil {
			ret = format.Percent(*t.ReturnRate)
		}
		side := upStyle.Render(fmt.Sprintf("%-4s", strings.ToUpper(string(t.Action))))
		if t.Action == journal.Sell {
			side = downStyle.Render(fmt.Sprintf("%-4s", "SELL"))
		}
		line := fmt.Sprintf("%-16s %-9s %s %14s %16s %9s  %s",
			t.TradeDate.Local().Format("2006-01-02 15:04"),
			t.Market,
			side,
			format.Number(t.Quantity, 4),
			format.KRW(t.Price),
			ret,
			t.Notes,
		)

		marker := "  "
		if editing != nil && editing.ID == t.ID {
			marker = "✎ "
		}
		if i == cursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = marker + line
		}
		b.WriteString("\n" + line)
	}
	return b.String()
}
