package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KANG-Hyeong-uk/coin/internal/format"
	"github.com/KANG-Hyeong-uk/coin/market"
	"github.com/KANG-Hyeong-uk/coin/market/indicators"
)

// PriceInterval is how often the cards move when no live feed is attached.
const PriceInterval = 3 * time.Second

type priceTickMsg time.Time

// coinUpdateMsg carries one snapshot from a live feed.
type coinUpdateMsg market.Coin

// feedClosedMsg reports the end of the live feed.
type feedClosedMsg struct{ err error }

type coinsView struct {
	gen    *market.Generator
	feed   *market.Feed
	coins  []market.Coin
	cursor int

	detail *market.CoinDetail
	frame  market.TimeFrame
	status string
}

func newCoinsView(gen *market.Generator, feed *market.Feed) *coinsView {
	return &coinsView{
		gen:   gen,
		feed:  feed,
		coins: gen.Coins(),
		frame: market.TimeFrame24H,
	}
}

func (v *coinsView) init() tea.Cmd {
	if v.feed != nil {
		return waitForCoin(v.feed)
	}
	return priceTick()
}

func priceTick() tea.Cmd {
	return tea.Tick(PriceInterval, func(t time.Time) tea.Msg { return priceTickMsg(t) })
}

func waitForCoin(f *market.Feed) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-f.Updates()
		if !ok {
			return feedClosedMsg{err: f.Err()}
		}
		return coinUpdateMsg(c)
	}
}

// handle processes messages addressed to the coins section whatever tab is
// showing, so prices keep moving in the background.
func (v *coinsView) handle(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case priceTickMsg:
		for i, c := range v.coins {
			v.coins[i] = v.gen.UpdatePrice(c)
		}
		return priceTick(), true
	case coinUpdateMsg:
		v.apply(market.Coin(msg))
		return waitForCoin(v.feed), true
	case feedClosedMsg:
		v.status = "live feed closed"
		if msg.err != nil {
			v.status += ": " + msg.err.Error()
		}
		v.feed = nil
		return priceTick(), true
	}
	return nil, false
}

// apply replaces the matching card, keeping its chart.
func (v *coinsView) apply(c market.Coin) {
	for i := range v.coins {
		if v.coins[i].ID == c.ID {
			if len(c.Chart) == 0 {
				c.Chart = v.coins[i].Chart
			}
			v.coins[i] = c
			return
		}
	}
	v.coins = append(v.coins, c)
}

func (v *coinsView) update(msg tea.KeyMsg, keys KeyMap) tea.Cmd {
	if v.detail != nil {
		switch {
		case key.Matches(msg, keys.Back):
			v.detail = nil
		case key.Matches(msg, keys.Frame):
			v.frame = v.frame.Next()
		}
		return nil
	}

	switch {
	case key.Matches(msg, keys.Up), msg.String() == "left", msg.String() == "h":
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(msg, keys.Down), msg.String() == "right", msg.String() == "l":
		if v.cursor < len(v.coins)-1 {
			v.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if v.cursor < len(v.coins) {
			d := v.gen.Detail(v.coins[v.cursor])
			v.detail = &d
		}
	}
	return nil
}

func (v *coinsView) view(width int) string {
	if v.detail != nil {
		return v.detailView()
	}

	cards := make([]string, len(v.coins))
	for i, c := range v.coins {
		cards[i] = renderCard(c, i == v.cursor)
	}

	perRow := max(1, width/32)
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}

	out := lipgloss.JoinVertical(lipgloss.Left, rows...)
	if v.status != "" {
		out += "\n" + helpStyle.Render(v.status)
	}
	return out
}

func renderCard(c market.Coin, active bool) string {
	arrow, style := "↑", upStyle
	if !c.Rising() {
		arrow, style = "↓", downStyle
	}
	pct := c.PriceChangePercentage24h
	if pct < 0 {
		pct = -pct
	}

	body := strings.Join([]string{
		headerStyle.Render(fmt.Sprintf("%s %s", c.Logo, c.Name)) + " " + helpStyle.Render(c.Symbol),
		format.USD(c.CurrentPrice) + "  " + style.Render(fmt.Sprintf("%s %.2f%%", arrow, pct)),
		style.Render(format.Sparkline(market.Prices(c.Chart), 26)),
	}, "\n")

	if active {
		return activeCardStyle.Render(body)
	}
	return cardStyle.Render(body)
}

func (v *coinsView) detailView() string {
	d := v.detail
	roi := d.ROI

	var tabs []string
	for _, tf := range market.TimeFrames {
		if tf == v.frame {
			tabs = append(tabs, activeTab.Render(string(tf)))
		} else {
			tabs = append(tabs, tabStyle.Render(string(tf)))
		}
	}

	stats := strings.Join([]string{
		headerStyle.Render("ROI"),
		fmt.Sprintf("Max      %s  %s (%s)", upStyle.Render(format.Percent(roi.Max.Percentage)), format.USD(roi.Max.Amount), roi.Max.Date),
		fmt.Sprintf("Min      %s  %s (%s)", downStyle.Render(format.Percent(roi.Min.Percentage)), format.USD(roi.Min.Amount), roi.Min.Date),
		fmt.Sprintf("Average  %s", signed(roi.Average).Render(format.Percent(roi.Average))),
		fmt.Sprintf("Invested %s", format.USD(roi.TotalInvestment)),
		fmt.Sprintf("Value    %s", format.USD(roi.CurrentValue)),
	}, "\n")

	prices := market.Prices(d.Charts[v.frame])
	sum := indicators.Summarize(prices, 24, 12)
	trend := fmt.Sprintf("Low %s  High %s  MA(%d) %s  EMA(%d) %s  σ %.2f%%",
		format.USD(sum.Low), format.USD(sum.High),
		sum.MAPeriod, format.USD(sum.MA),
		sum.EMAPeriod, format.USD(sum.EMA),
		sum.Volatility)

	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(fmt.Sprintf("%s %s (%s)  %s", d.Logo, d.Name, d.Symbol, format.USD(d.CurrentPrice))),
		"",
		strings.Join(tabs, " "),
		panelStyle.Render(format.Sparkline(prices, 60)+"\n"+helpStyle.Render(trend)),
		panelStyle.Render(stats),
	)
}
