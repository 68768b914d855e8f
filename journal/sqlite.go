package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/KANG-Hyeong-uk/coin/internal/id"
)

// SQLite is a Service backed by a local SQLite file. It is what the
// development journal server persists to.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time; sqlite would answer "database is locked" otherwise
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

const tradeColumns = `id, market, action, quantity, price, trade_date, notes, return_rate`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (Trade, error) {
	var (
		t   Trade
		ret sql.NullFloat64
	)
	err := row.Scan(
		&t.ID,
		&t.Market,
		&t.Action,
		&t.Quantity,
		&t.Price,
		&t.TradeDate,
		&t.Notes,
		&ret,
	)
	if err != nil {
		return Trade{}, err
	}
	if ret.Valid {
		r := ret.Float64
		t.ReturnRate = &r
	}
	t.TradeDate = t.TradeDate.UTC()
	return t, nil
}

func nullable(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

// ListTrades returns every trade, most recent trade_date first.
func (j *SQLite) ListTrades(ctx context.Context) ([]Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		ORDER BY trade_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade by id.
func (j *SQLite) GetTrade(ctx context.Context, tradeID string) (Trade, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE id = ?`, tradeID)

	t, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Trade{}, fmt.Errorf("%w: %q", ErrNotFound, tradeID)
		}
		return Trade{}, err
	}
	return t, nil
}

// ListTradesBetween returns trades whose trade_date is within [start, end),
// oldest first.
func (j *SQLite) ListTradesBetween(ctx context.Context, start, end time.Time) ([]Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE trade_date >= ? AND trade_date < ?
		ORDER BY trade_date ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Statistics counts trades per side and averages return_rate over the
// trades that carry one.
func (j *SQLite) Statistics(ctx context.Context) (Statistics, error) {
	var st Statistics
	err := j.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN action = 'buy' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN action = 'sell' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN action = 'buy' THEN return_rate END), 0),
			COALESCE(AVG(CASE WHEN action = 'sell' THEN return_rate END), 0),
			COALESCE(AVG(return_rate), 0)
		FROM trades`).Scan(
		&st.TotalBuyCount,
		&st.TotalSellCount,
		&st.AverageBuyReturn,
		&st.AverageSellReturn,
		&st.AverageTotalReturn,
	)
	if err != nil {
		return Statistics{}, err
	}
	return st, nil
}

func (j *SQLite) CreateTrade(ctx context.Context, in TradeInput) (Trade, error) {
	if err := in.Validate(); err != nil {
		return Trade{}, err
	}
	if in.TradeDate.IsZero() {
		in.TradeDate = j.now()
	}

	t := Trade{
		ID:         id.New(),
		Market:     in.Market,
		Action:     in.Action,
		Quantity:   in.Quantity,
		Price:      in.Price,
		TradeDate:  in.TradeDate.UTC(),
		Notes:      in.Notes,
		ReturnRate: in.ReturnRate,
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Market, t.Action, t.Quantity, t.Price,
		t.TradeDate, t.Notes, nullable(t.ReturnRate),
	)
	if err != nil {
		return Trade{}, err
	}
	return t, nil
}

func (j *SQLite) UpdateTrade(ctx context.Context, tradeID string, in TradeInput) (Trade, error) {
	if err := in.Validate(); err != nil {
		return Trade{}, err
	}
	if in.TradeDate.IsZero() {
		in.TradeDate = j.now()
	}

	res, err := j.db.ExecContext(ctx, `
		UPDATE trades
		SET market = ?, action = ?, quantity = ?, price = ?, trade_date = ?, notes = ?, return_rate = ?
		WHERE id = ?`,
		in.Market, in.Action, in.Quantity, in.Price,
		in.TradeDate.UTC(), in.Notes, nullable(in.ReturnRate), tradeID,
	)
	if err != nil {
		return Trade{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return Trade{}, err
	} else if n == 0 {
		return Trade{}, fmt.Errorf("%w: %q", ErrNotFound, tradeID)
	}
	return j.GetTrade(ctx, tradeID)
}

func (j *SQLite) DeleteTrade(ctx context.Context, tradeID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, tradeID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, tradeID)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
