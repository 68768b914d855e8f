// Package backtest is the client side of the remote backtesting service:
// request and result types, an HTTP client, the Simulator controller that
// backs the simulator form, and result reports.
package backtest

import (
	"fmt"
	"strings"
)

// Market is a tradable pair offered by the backtest service.
type Market struct {
	Code string
	Name string
}

// Markets lists the pairs the simulator offers, in display order.
var Markets = []Market{
	{Code: "KRW-BTC", Name: "Bitcoin (BTC)"},
	{Code: "KRW-ETH", Name: "Ethereum (ETH)"},
	{Code: "KRW-XRP", Name: "Ripple (XRP)"},
	{Code: "KRW-ADA", Name: "Cardano (ADA)"},
	{Code: "KRW-DOT", Name: "Polkadot (DOT)"},
	{Code: "KRW-LINK", Name: "Chainlink (LINK)"},
	{Code: "KRW-LTC", Name: "Litecoin (LTC)"},
	{Code: "KRW-BCH", Name: "Bitcoin Cash (BCH)"},
}

// LookupMarket finds a market by code, case-insensitively.
func LookupMarket(code string) (Market, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, m := range Markets {
		if m.Code == code {
			return m, true
		}
	}
	return Market{}, false
}

// Form bounds.
const (
	MinDays    = 30
	MaxDays    = 1000
	MinCapital = 1_000_000
	// CapitalStep is the increment the form's capital control moves by.
	CapitalStep = 1_000_000
)

// Request is the body of POST /api/backtest.
type Request struct {
	Market         string  `json:"market"`
	Days           int     `json:"days"`
	InitialCapital float64 `json:"initial_capital"`
	// UseAPI asks the service to pull live exchange data instead of its
	// cached dataset. Slower.
	UseAPI bool `json:"use_api"`
}

// DefaultRequest is the form's initial state.
func DefaultRequest() Request {
	return Request{
		Market:         "KRW-BTC",
		Days:           500,
		InitialCapital: 10_000_000,
		UseAPI:         false,
	}
}

// Validate checks the request against the form bounds.
func (r Request) Validate() error {
	if _, ok := LookupMarket(r.Market); !ok {
		return fmt.Errorf("unknown market: %s", r.Market)
	}
	if r.Days < MinDays || r.Days > MaxDays {
		return fmt.Errorf("days must be between %d and %d", MinDays, MaxDays)
	}
	if r.InitialCapital < MinCapital {
		return fmt.Errorf("initial_capital must be at least %d", MinCapital)
	}
	return nil
}

type DataPeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// Metrics are the performance figures computed by the service. Returns,
// win rate, drawdown and uptrend probability are percentages.
type Metrics struct {
	InitialCapital     float64 `json:"initial_capital"`
	FinalValue         float64 `json:"final_value"`
	TotalReturn        float64 `json:"total_return"`
	BuyHoldReturn      float64 `json:"buy_hold_return"`
	NumTrades          int     `json:"num_trades"`
	WinRate            float64 `json:"win_rate"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	SharpeRatio        float64 `json:"sharpe_ratio"`
	UptrendProbability float64 `json:"uptrend_probability"`
}

type Signals struct {
	BuyCount  int `json:"buy_count"`
	SellCount int `json:"sell_count"`
}

// Result is the service's answer to a backtest request.
type Result struct {
	Success    bool       `json:"success"`
	Market     string     `json:"market"`
	DataPeriod DataPeriod `json:"data_period"`
	Metrics    Metrics    `json:"metrics"`
	// ChartImage is a base64 encoded PNG rendered by the service.
	ChartImage string  `json:"chart_image"`
	Signals    Signals `json:"signals"`
}
