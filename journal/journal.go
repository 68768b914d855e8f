// Package journal is the trade journal: its record types, the REST client
// for the journal service, a SQLite store, and the controller that keeps a
// session's view of the journal in sync with the service.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Action is the side of a trade.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

func (a Action) Valid() bool {
	return a == Buy || a == Sell
}

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("action must be buy or sell, got %q", s)
	}
	return a, nil
}

// Trade is a journal record as stored by the journal service.
type Trade struct {
	ID         string    `json:"id"`
	Market     string    `json:"market"`
	Action     Action    `json:"action"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	TradeDate  time.Time `json:"trade_date"`
	Notes      string    `json:"notes,omitempty"`
	ReturnRate *float64  `json:"return_rate,omitempty"`
}

// Input returns the editable fields of t.
func (t Trade) Input() TradeInput {
	return TradeInput{
		Market:     t.Market,
		Action:     t.Action,
		Quantity:   t.Quantity,
		Price:      t.Price,
		TradeDate:  t.TradeDate,
		Notes:      t.Notes,
		ReturnRate: t.ReturnRate,
	}
}

// Clone returns a copy of t that shares no pointers with it.
func (t Trade) Clone() Trade {
	if t.ReturnRate != nil {
		r := *t.ReturnRate
		t.ReturnRate = &r
	}
	return t
}

// TradeInput is the body of a create or update request.
type TradeInput struct {
	Market     string    `json:"market"`
	Action     Action    `json:"action"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	TradeDate  time.Time `json:"trade_date"`
	Notes      string    `json:"notes,omitempty"`
	ReturnRate *float64  `json:"return_rate,omitempty"`
}

// FieldError names one invalid field of a TradeInput.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every problem found in a TradeInput.
type ValidationError []FieldError

func (v ValidationError) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, ", ")
}

// Validate checks the fields the journal service requires.
func (in TradeInput) Validate() error {
	var v ValidationError
	if strings.TrimSpace(in.Market) == "" {
		v = append(v, FieldError{"market", "field required"})
	}
	if !in.Action.Valid() {
		v = append(v, FieldError{"action", "must be buy or sell"})
	}
	if in.Quantity <= 0 {
		v = append(v, FieldError{"quantity", "must be greater than 0"})
	}
	if in.Price <= 0 {
		v = append(v, FieldError{"price", "must be greater than 0"})
	}
	if len(v) > 0 {
		return v
	}
	return nil
}

// Statistics is the journal summary computed by the service. Clients display
// it as is.
type Statistics struct {
	TotalBuyCount      int     `json:"total_buy_count"`
	TotalSellCount     int     `json:"total_sell_count"`
	AverageBuyReturn   float64 `json:"average_buy_return"`
	AverageSellReturn  float64 `json:"average_sell_return"`
	AverageTotalReturn float64 `json:"average_total_return"`
}

var ErrNotFound = errors.New("trade not found")

// Service is the journal backend. The REST Client and the SQLite store both
// implement it.
type Service interface {
	ListTrades(ctx context.Context) ([]Trade, error)
	Statistics(ctx context.Context) (Statistics, error)
	CreateTrade(ctx context.Context, in TradeInput) (Trade, error)
	UpdateTrade(ctx context.Context, id string, in TradeInput) (Trade, error)
	DeleteTrade(ctx context.Context, id string) error
}
