package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBaseURL is where the journal service listens in development.
const DefaultBaseURL = "http://localhost:8000/api"

// Client talks to the journal REST service:
//
//	GET    {base}/trades
//	GET    {base}/trades/statistics
//	POST   {base}/trades
//	PUT    {base}/trades/{id}   (or PATCH, see WithUpdateMethod)
//	DELETE {base}/trades/{id}
type Client struct {
	baseURL      string
	updateMethod string
	httpClient   *http.Client
	logger       *zap.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithUpdateMethod selects PUT (default) or PATCH for updates.
func WithUpdateMethod(method string) ClientOption {
	return func(c *Client) {
		if m := strings.ToUpper(method); m == http.MethodPatch || m == http.MethodPut {
			c.updateMethod = m
		}
	}
}

// NewClient creates a journal client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		updateMethod: http.MethodPut,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListTrades(ctx context.Context) ([]Trade, error) {
	var trades []Trade
	if err := c.do(ctx, http.MethodGet, "/trades", nil, &trades); err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	if trades == nil {
		trades = []Trade{}
	}
	return trades, nil
}

func (c *Client) Statistics(ctx context.Context) (Statistics, error) {
	var st Statistics
	if err := c.do(ctx, http.MethodGet, "/trades/statistics", nil, &st); err != nil {
		return Statistics{}, fmt.Errorf("get statistics: %w", err)
	}
	return st, nil
}

func (c *Client) CreateTrade(ctx context.Context, in TradeInput) (Trade, error) {
	var t Trade
	if err := c.do(ctx, http.MethodPost, "/trades", in, &t); err != nil {
		return Trade{}, fmt.Errorf("create trade: %w", err)
	}
	return t, nil
}

func (c *Client) UpdateTrade(ctx context.Context, id string, in TradeInput) (Trade, error) {
	if id == "" {
		return Trade{}, fmt.Errorf("update trade: id is required")
	}
	var t Trade
	if err := c.do(ctx, c.updateMethod, "/trades/"+url.PathEscape(id), in, &t); err != nil {
		return Trade{}, fmt.Errorf("update trade %s: %w", id, err)
	}
	return t, nil
}

func (c *Client) DeleteTrade(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("delete trade: id is required")
	}
	if err := c.do(ctx, http.MethodDelete, "/trades/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete trade %s: %w", id, err)
	}
	return nil
}

// do sends one request and decodes a 2xx body into out when out is non-nil.
// A 404 is reported as ErrNotFound wrapped around the APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("journal request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("journal request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := newAPIError(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
