package tui

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KANG-Hyeong-uk/coin/backtest"
	"github.com/KANG-Hyeong-uk/coin/journal"
	"github.com/KANG-Hyeong-uk/coin/market"
)

type memJournal struct {
	mu     sync.Mutex
	trades []journal.Trade
	seq    int
}

func (m *memJournal) ListTrades(context.Context) ([]journal.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]journal.Trade{}, m.trades...), nil
}

func (m *memJournal) Statistics(context.Context) (journal.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st journal.Statistics
	for _, t := range m.trades {
		if t.Action == journal.Buy {
			st.TotalBuyCount++
		} else {
			st.TotalSellCount++
		}
	}
	return st, nil
}

func (m *memJournal) CreateTrade(_ context.Context, in journal.TradeInput) (journal.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := journal.Trade{ID: fmt.Sprintf("t%d", m.seq), Market: in.Market, Action: in.Action,
		Quantity: in.Quantity, Price: in.Price, TradeDate: in.TradeDate, Notes: in.Notes, ReturnRate: in.ReturnRate}
	m.trades = append(m.trades, t)
	return t, nil
}

func (m *memJournal) UpdateTrade(_ context.Context, id string, in journal.TradeInput) (journal.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.trades {
		if t.ID == id {
			m.trades[i] = journal.Trade{ID: id, Market: in.Market, Action: in.Action,
				Quantity: in.Quantity, Price: in.Price, TradeDate: in.TradeDate, Notes: in.Notes, ReturnRate: in.ReturnRate}
			return m.trades[i], nil
		}
	}
	return journal.Trade{}, journal.ErrNotFound
}

func (m *memJournal) DeleteTrade(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.trades {
		if t.ID == id {
			m.trades = append(m.trades[:i], m.trades[i+1:]...)
			return nil
		}
	}
	return journal.ErrNotFound
}

type stubRunner struct{ calls int }

func (s *stubRunner) Run(_ context.Context, req backtest.Request) (*backtest.Result, error) {
	s.calls++
	return &backtest.Result{Success: true, Market: req.Market, Metrics: backtest.Metrics{TotalReturn: 5}}, nil
}

func newTestModel(t *testing.T) (*Model, *memJournal, *stubRunner) {
	t.Helper()
	svc := &memJournal{}
	runner := &stubRunner{}
	m := New(Options{
		Generator: market.NewGenerator(42),
		Journal:   journal.NewController(svc, nil),
		Simulator: backtest.NewSimulator(runner, nil),
	})
	return m, svc, runner
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
)

// press feeds msg to the model and runs the resulting command once,
// feeding its message back, so controller calls complete synchronously.
// Keys that focus a text input return a blink command; use Update for
// those.
func press(t *testing.T, m *Model, msg tea.Msg) {
	t.Helper()
	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}
	switch out := cmd().(type) {
	case journalDoneMsg, simDoneMsg:
		m.Update(out)
	}
}

func TestParseTradeForm(t *testing.T) {
	var v [fieldCount]string
	v[fieldMarket] = " krw-eth "
	v[fieldAction] = "SELL"
	v[fieldQuantity] = "1.5"
	v[fieldPrice] = "3,200,000"
	v[fieldDate] = "2024-03-01 09:30"
	v[fieldReturn] = "4.5%"
	v[fieldNotes] = " took profit "

	in, err := parseTradeForm(v)
	require.NoError(t, err)
	assert.Equal(t, "KRW-ETH", in.Market)
	assert.Equal(t, journal.Sell, in.Action)
	assert.Equal(t, 1.5, in.Quantity)
	assert.Equal(t, 3_200_000.0, in.Price)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.Local), in.TradeDate)
	require.NotNil(t, in.ReturnRate)
	assert.Equal(t, 4.5, *in.ReturnRate)
	assert.Equal(t, "took profit", in.Notes)

	v[fieldDate] = ""
	v[fieldReturn] = ""
	in, err = parseTradeForm(v)
	require.NoError(t, err)
	assert.True(t, in.TradeDate.IsZero())
	assert.Nil(t, in.ReturnRate)

	v[fieldPrice] = "cheap"
	_, err = parseTradeForm(v)
	assert.EqualError(t, err, "price: not a number")

	v[fieldPrice] = "100"
	v[fieldDate] = "yesterday"
	_, err = parseTradeForm(v)
	assert.ErrorContains(t, err, "date:")
}

func TestSectionNavigation(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Equal(t, SectionCoins, m.Section())

	m.Update(tabKey)
	assert.Equal(t, SectionJournal, m.Section())
	m.Update(tabKey)
	assert.Equal(t, SectionSimulator, m.Section())
	m.Update(tabKey)
	assert.Equal(t, SectionCoins, m.Section())
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, SectionSimulator, m.Section())

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestCoinsDetail(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(runes("j"))
	assert.Equal(t, 1, m.coins.cursor)

	m.Update(enterKey)
	require.NotNil(t, m.coins.detail)
	assert.Equal(t, "ethereum", m.coins.detail.ID)
	assert.Contains(t, m.View(), "ROI")

	m.Update(runes("t"))
	assert.Equal(t, market.TimeFrame7D, m.coins.frame)

	m.Update(escKey)
	assert.Nil(t, m.coins.detail)
}

func TestPriceTickMovesCards(t *testing.T) {
	m, _, _ := newTestModel(t)
	before := m.coins.coins[0].CurrentPrice

	_, cmd := m.Update(priceTickMsg(time.Now()))
	assert.NotNil(t, cmd, "ticking continues")
	assert.NotEqual(t, before, m.coins.coins[0].CurrentPrice)
}

func TestJournalCreateEditDelete(t *testing.T) {
	m, svc, _ := newTestModel(t)
	m.Update(tabKey)

	m.Update(runes("n"))
	require.True(t, m.journal.ctrl.Snapshot().FormOpen)

	// Typed keys go to the form, not the shortcuts.
	m.Update(runes("q"))
	assert.Equal(t, "KRW-BTCq", m.journal.form.inputs[fieldMarket].Value())
	m.journal.form.inputs[fieldMarket].SetValue("KRW-BTC")

	m.journal.form.inputs[fieldQuantity].SetValue("1")
	m.journal.form.inputs[fieldPrice].SetValue("100")
	press(t, m, enterKey)

	st := m.journal.ctrl.Snapshot()
	require.Len(t, st.Trades, 1)
	assert.Equal(t, "t1", st.Trades[0].ID)
	assert.Equal(t, 1, st.Stats.TotalBuyCount)
	assert.Equal(t, journal.MsgCreated, st.Success)
	assert.Empty(t, m.journal.form.inputs[fieldQuantity].Value(), "form resets after create")

	// close the form, then edit the selected row
	press(t, m, escKey)
	require.False(t, m.journal.ctrl.Snapshot().FormOpen)
	m.Update(runes("e"))
	st = m.journal.ctrl.Snapshot()
	require.NotNil(t, st.Editing)
	assert.Equal(t, "100", m.journal.form.inputs[fieldPrice].Value())

	m.journal.form.inputs[fieldPrice].SetValue("120")
	press(t, m, enterKey)
	st = m.journal.ctrl.Snapshot()
	assert.Nil(t, st.Editing)
	assert.Equal(t, 120.0, st.Trades[0].Price)

	press(t, m, escKey)
	press(t, m, runes("d"))
	assert.Empty(t, m.journal.ctrl.Snapshot().Trades)
	assert.Empty(t, svc.trades)
}

func TestJournalEditThenCancel(t *testing.T) {
	m, svc, _ := newTestModel(t)
	_, err := svc.CreateTrade(context.Background(), journal.TradeInput{Market: "KRW-BTC", Action: journal.Buy, Quantity: 1, Price: 1})
	require.NoError(t, err)
	m.Update(tabKey)
	press(t, m, runes("r"))
	require.Len(t, m.journal.ctrl.Snapshot().Trades, 1)

	m.Update(runes("e"))
	require.NotNil(t, m.journal.ctrl.Snapshot().Editing)
	press(t, m, escKey)

	st := m.journal.ctrl.Snapshot()
	assert.Nil(t, st.Editing)
	assert.Len(t, st.Trades, 1)
}

func TestJournalFormParseError(t *testing.T) {
	m, svc, _ := newTestModel(t)
	m.Update(tabKey)
	m.Update(runes("n"))

	m.journal.form.inputs[fieldQuantity].SetValue("lots")
	_, cmd := m.Update(enterKey)
	assert.Nil(t, cmd, "nothing is sent")
	assert.Equal(t, "quantity: not a number", m.journal.form.err)
	assert.Empty(t, svc.trades)
}

func TestSimulatorKeys(t *testing.T) {
	m, _, runner := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, SectionSimulator, m.Section())

	m.Update(runes("m"))
	m.Update(runes("+"))
	m.Update(runes("u"))
	for i := 0; i < 20; i++ {
		m.Update(runes("["))
	}

	p := m.sim.sim.Snapshot().Params
	assert.Equal(t, "KRW-ETH", p.Market)
	assert.Equal(t, 530, p.Days)
	assert.True(t, p.UseAPI)
	assert.Equal(t, float64(backtest.MinCapital), p.InitialCapital, "capital floors at the minimum")

	press(t, m, enterKey)
	assert.Equal(t, 1, runner.calls)
	st := m.sim.sim.Snapshot()
	require.NotNil(t, st.Result)
	assert.Contains(t, m.View(), "+5.00%")
}

func TestSimulatorRunDisabledUntilDone(t *testing.T) {
	m, _, runner := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})

	_, first := m.Update(enterKey)
	require.NotNil(t, first)
	assert.Contains(t, m.View(), "running…")
	assert.NotContains(t, m.View(), "enter: run backtest")

	_, second := m.Update(enterKey)
	assert.Nil(t, second, "run stays disabled before the first command starts")

	m.Update(first())
	assert.Equal(t, 1, runner.calls)
	assert.Contains(t, m.View(), "enter: run backtest")

	press(t, m, enterKey)
	assert.Equal(t, 2, runner.calls, "enabled again once the run finished")
}

func TestJournalSubmitDisabledUntilDone(t *testing.T) {
	m, svc, _ := newTestModel(t)
	m.Update(tabKey)
	m.Update(runes("n"))
	m.journal.form.inputs[fieldQuantity].SetValue("1")
	m.journal.form.inputs[fieldPrice].SetValue("100")

	_, first := m.Update(enterKey)
	require.NotNil(t, first)
	assert.Contains(t, m.View(), "saving…")

	_, second := m.Update(enterKey)
	assert.Nil(t, second, "submit stays disabled before the first command starts")

	m.Update(first())
	assert.Len(t, svc.trades, 1)
	assert.NotContains(t, m.View(), "saving…")
}
