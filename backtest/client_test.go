package backtest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResult = `{
	"success": true,
	"market": "KRW-ETH",
	"data_period": {"start": "2023-01-01", "end": "2024-05-15", "days": 500},
	"metrics": {
		"initial_capital": 10000000,
		"final_value": 12345678,
		"total_return": 23.46,
		"buy_hold_return": 18.2,
		"num_trades": 14,
		"win_rate": 57.14,
		"max_drawdown": 12.5,
		"sharpe_ratio": 1.32,
		"uptrend_probability": 61.0
	},
	"chart_image": "iVBORw0KGgo=",
	"signals": {"buy_count": 7, "sell_count": 7}
}`

func TestClientRun(t *testing.T) {
	t.Parallel()

	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/backtest", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResult))
	}))
	t.Cleanup(srv.Close)

	req := Request{Market: "KRW-ETH", Days: 500, InitialCapital: 10_000_000}
	res, err := NewClient(srv.URL+"/").Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, got)
	assert.True(t, res.Success)
	assert.Equal(t, "KRW-ETH", res.Market)
	assert.Equal(t, 500, res.DataPeriod.Days)
	assert.InDelta(t, 23.46, res.Metrics.TotalReturn, 1e-9)
	assert.Equal(t, 14, res.Metrics.NumTrades)
	assert.Equal(t, 7, res.Signals.SellCount)
}

func TestClientRunRequestBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "KRW-BTC", raw["market"])
		assert.EqualValues(t, 500, raw["days"])
		assert.EqualValues(t, 10_000_000, raw["initial_capital"])
		assert.Equal(t, false, raw["use_api"])
		_, _ = w.Write([]byte(sampleResult))
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).Run(context.Background(), DefaultRequest())
	require.NoError(t, err)
}

func TestClientRunHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no data"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).Run(context.Background(), DefaultRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunFailed)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClientRunBadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).Run(context.Background(), DefaultRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClientRunUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Run(context.Background(), DefaultRequest())
	require.Error(t, err)
}
