package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KANG-Hyeong-uk/coin/backtest"
	"github.com/KANG-Hyeong-uk/coin/internal/format"
)

// daysStep is how far one keypress moves the period.
const daysStep = 30

type simDoneMsg struct{}

type simulatorView struct {
	sim *backtest.Simulator
	// busy covers the gap between enter and the command starting, before
	// the simulator reports Running.
	busy bool
}

func (v *simulatorView) run() tea.Cmd {
	v.busy = true
	return func() tea.Msg {
		_ = v.sim.Run(context.Background())
		return simDoneMsg{}
	}
}

func (v *simulatorView) update(msg tea.KeyMsg, keys KeyMap) tea.Cmd {
	st := v.sim.Snapshot()
	p := st.Params

	switch {
	case key.Matches(msg, keys.Market):
		v.sim.CycleMarket()
	case key.Matches(msg, keys.DaysUp):
		v.sim.SetDays(min(p.Days+daysStep, backtest.MaxDays))
	case key.Matches(msg, keys.DaysDown):
		v.sim.SetDays(max(p.Days-daysStep, backtest.MinDays))
	case key.Matches(msg, keys.CapitalUp):
		v.sim.SetCapital(p.InitialCapital + backtest.CapitalStep)
	case key.Matches(msg, keys.CapitalDown):
		v.sim.SetCapital(max(p.InitialCapital-backtest.CapitalStep, backtest.MinCapital))
	case key.Matches(msg, keys.UseAPI):
		v.sim.SetUseAPI(!p.UseAPI)
	case key.Matches(msg, keys.Enter):
		if !st.Running && !v.busy {
			return v.run()
		}
	}
	return nil
}

func (v *simulatorView) view() string {
	st := v.sim.Snapshot()
	p := st.Params

	market := p.Market
	if m, ok := backtest.LookupMarket(p.Market); ok {
		market = m.Name
	}
	source := "cached dataset"
	if p.UseAPI {
		source = "live exchange data (slow)"
	}
	run := selectedStyle.Render("[ enter: run backtest ]")
	if st.Running || v.busy {
		run = helpStyle.Render("[ running… ]")
	}

	params := strings.Join([]string{
		headerStyle.Render("Parameters"),
		fmt.Sprintf("Market   %s", market),
		fmt.Sprintf("Period   %d days", p.Days),
		fmt.Sprintf("Capital  %s", format.KRW(p.InitialCapital)),
		fmt.Sprintf("Data     %s", source),
		"",
		run,
	}, "\n")

	parts := []string{panelStyle.Render(params)}
	if st.Err != "" {
		parts = append(parts, errorStyle.Render("✗ "+st.Err))
	}
	if st.Result != nil {
		parts = append(parts, renderResult(st.Result))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderResult(r *backtest.Result) string {
	m := r.Metrics
	cell := func(label, value string) string {
		return lipgloss.NewStyle().Width(20).Render(helpStyle.Render(label) + "\n" + value)
	}

	row1 := lipgloss.JoinHorizontal(lipgloss.Top,
		cell("Strategy return", signed(m.TotalReturn).Render(format.Percent(m.TotalReturn))),
		cell("Buy & hold", signed(m.BuyHoldReturn).Render(format.Percent(m.BuyHoldReturn))),
		cell("Final value", format.KRW(m.FinalValue)),
	)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top,
		cell("Trades", fmt.Sprintf("%d", m.NumTrades)),
		cell("Win rate", fmt.Sprintf("%.2f%%", m.WinRate)),
		cell("Uptrend prob.", fmt.Sprintf("%.2f%%", m.UptrendProbability)),
	)
	row3 := lipgloss.JoinHorizontal(lipgloss.Top,
		cell("Max drawdown", downStyle.Render(fmt.Sprintf("-%.2f%%", m.MaxDrawdown))),
		cell("Sharpe", fmt.Sprintf("%.2f", m.SharpeRatio)),
		cell("Signals", fmt.Sprintf("%d buy / %d sell", r.Signals.BuyCount, r.Signals.SellCount)),
	)

	head := headerStyle.Render(fmt.Sprintf("%s  %s ~ %s (%d days)", r.Market, r.DataPeriod.Start, r.DataPeriod.End, r.DataPeriod.Days))
	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, head, "", row1, row2, row3))
}
