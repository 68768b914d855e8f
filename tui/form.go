package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/KANG-Hyeong-uk/coin/journal"
)

// Form fields, in tab order.
const (
	fieldMarket = iota
	fieldAction
	fieldQuantity
	fieldPrice
	fieldDate
	fieldReturn
	fieldNotes
	fieldCount
)

var fieldLabels = [fieldCount]string{"Market", "Action", "Quantity", "Price", "Date", "Return %", "Notes"}

// Accepted trade date layouts.
var dateLayouts = []string{"2006-01-02 15:04", "2006-01-02", time.RFC3339}

type tradeForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newTradeForm() *tradeForm {
	f := &tradeForm{}
	placeholders := [fieldCount]string{"KRW-BTC", "buy | sell", "0.5", "50000000", "YYYY-MM-DD [HH:MM]", "optional", "optional"}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 128
		ti.Width = 30
		f.inputs[i] = ti
	}
	f.reset()
	return f
}

// reset clears every field back to a fresh buy on KRW-BTC.
func (f *tradeForm) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.inputs[fieldMarket].SetValue("KRW-BTC")
	f.inputs[fieldAction].SetValue(string(journal.Buy))
	f.err = ""
	f.setFocus(0)
}

// fill loads t into the fields.
func (f *tradeForm) fill(t journal.Trade) {
	f.inputs[fieldMarket].SetValue(t.Market)
	f.inputs[fieldAction].SetValue(string(t.Action))
	f.inputs[fieldQuantity].SetValue(strconv.FormatFloat(t.Quantity, 'f', -1, 64))
	f.inputs[fieldPrice].SetValue(strconv.FormatFloat(t.Price, 'f', -1, 64))
	f.inputs[fieldDate].SetValue("")
	if !t.TradeDate.IsZero() {
		f.inputs[fieldDate].SetValue(t.TradeDate.Local().Format("2006-01-02 15:04"))
	}
	f.inputs[fieldReturn].SetValue("")
	if t.ReturnRate != nil {
		f.inputs[fieldReturn].SetValue(strconv.FormatFloat(*t.ReturnRate, 'f', -1, 64))
	}
	f.inputs[fieldNotes].SetValue(t.Notes)
	f.err = ""
	f.setFocus(0)
}

func (f *tradeForm) setFocus(i int) tea.Cmd {
	f.focus = (i + fieldCount) % fieldCount
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == f.focus {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

func (f *tradeForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *tradeForm) values() [fieldCount]string {
	var out [fieldCount]string
	for i, in := range f.inputs {
		out[i] = in.Value()
	}
	return out
}

// parseTradeForm turns raw field text into a TradeInput. Only syntax is
// checked here; TradeInput.Validate and the service check the rest.
func parseTradeForm(v [fieldCount]string) (journal.TradeInput, error) {
	in := journal.TradeInput{
		Market: strings.ToUpper(strings.TrimSpace(v[fieldMarket])),
		Action: journal.Action(strings.ToLower(strings.TrimSpace(v[fieldAction]))),
		Notes:  strings.TrimSpace(v[fieldNotes]),
	}

	var err error
	if in.Quantity, err = parseNumber("quantity", v[fieldQuantity]); err != nil {
		return in, err
	}
	if in.Price, err = parseNumber("price", v[fieldPrice]); err != nil {
		return in, err
	}

	if s := strings.TrimSpace(v[fieldDate]); s != "" {
		in.TradeDate, err = parseDate(s)
		if err != nil {
			return in, err
		}
	}

	if s := strings.TrimSpace(v[fieldReturn]); s != "" {
		r, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return in, fmt.Errorf("return rate: not a number")
		}
		in.ReturnRate = &r
	}
	return in, nil
}

func parseNumber(field, s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not a number", field)
	}
	return n, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date: use YYYY-MM-DD or YYYY-MM-DD HH:MM")
}

func (f *tradeForm) view(editing *journal.Trade, saving bool) string {
	title := "New trade"
	if editing != nil {
		title = "Editing " + editing.Market + " " + string(editing.Action)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(title) + "\n")
	for i, in := range f.inputs {
		label := fmt.Sprintf("%-9s", fieldLabels[i])
		if i == f.focus {
			label = selectedStyle.Render(label)
		}
		b.WriteString(label + " " + in.View() + "\n")
	}
	if f.err != "" {
		b.WriteString(errorStyle.Render(f.err) + "\n")
	}
	if saving {
		b.WriteString(helpStyle.Render("saving…"))
	} else {
		b.WriteString(helpStyle.Render("tab/shift+tab field  enter save  esc cancel edit or close"))
	}
	return panelStyle.Render(b.String())
}
