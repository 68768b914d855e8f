package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KANG-Hyeong-uk/coin/backtest"
	"github.com/KANG-Hyeong-uk/coin/internal/cache"
	"github.com/KANG-Hyeong-uk/coin/internal/server"
	"github.com/KANG-Hyeong-uk/coin/journal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--env-file=", "--log-level=error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// journalBackend starts the journal API on a temporary database and points
// the CLI at it.
func journalBackend(t *testing.T) *journal.SQLite {
	t.Helper()

	db, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	stats, err := cache.New(100, 0)
	require.NoError(t, err)
	t.Cleanup(stats.Close)

	srv := httptest.NewServer(server.NewServer(db, stats, nil, zap.NewNop()).R)
	t.Cleanup(srv.Close)

	t.Setenv("COIN_JOURNAL_BASE_URL", srv.URL+"/api")
	return db
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "coinfolio "+Version+"\n", out)
}

func TestCoinsList(t *testing.T) {
	out, err := run(t, "coins", "list", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "bitcoin")
	assert.Contains(t, out, "$67,842.35")
	assert.Contains(t, out, "-$87.92")
}

func TestCoinsShow(t *testing.T) {
	out, err := run(t, "coins", "show", "ETH", "--seed", "7", "--timeframe", "7D")
	require.NoError(t, err)
	assert.Contains(t, out, "Ethereum (ETH)")
	assert.Contains(t, out, "Chart (7D, 168 points)")
	assert.Contains(t, out, "MA(24):")
	assert.Contains(t, out, "EMA(12):")

	_, err = run(t, "coins", "show", "doge")
	assert.Error(t, err)

	_, err = run(t, "coins", "show", "btc", "--timeframe", "2W")
	assert.Error(t, err)
}

func TestJournalAddListEditRm(t *testing.T) {
	db := journalBackend(t)

	out, err := run(t, "journal", "add",
		"--market", "krw-eth", "--action", "buy",
		"--quantity", "2", "--price", "3500000",
		"--date", "2024-05-01", "--notes", "dip")
	require.NoError(t, err)
	assert.Contains(t, out, journal.MsgCreated)

	trades, err := db.ListTrades(context.Background())
	require.NoError(t, err)
	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, "KRW-ETH", tr.Market)
	assert.Equal(t, "dip", tr.Notes)

	out, err = run(t, "journal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, tr.ID)
	assert.Contains(t, out, "3,500,000원")

	out, err = run(t, "journal", "edit", tr.ID, "--price", "3600000", "--return", "4.5")
	require.NoError(t, err)
	assert.Contains(t, out, journal.MsgUpdated)

	got, err := db.GetTrade(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Equal(t, 3600000.0, got.Price)
	assert.Equal(t, 2.0, got.Quantity, "unchanged flags keep their values")
	assert.Equal(t, "dip", got.Notes)
	require.NotNil(t, got.ReturnRate)
	assert.Equal(t, 4.5, *got.ReturnRate)

	out, err = run(t, "journal", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Buys:          1")

	out, err = run(t, "journal", "rm", tr.ID)
	require.NoError(t, err)
	assert.Contains(t, out, journal.MsgDeleted)

	out, err = run(t, "journal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No trades recorded.")
}

func TestJournalAddRejectedLocally(t *testing.T) {
	journalBackend(t)

	_, err := run(t, "journal", "add", "--market", "KRW-BTC", "--price", "100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity: must be greater than 0")
}

func TestJournalEditUnknown(t *testing.T) {
	journalBackend(t)

	_, err := run(t, "journal", "edit", "nope", "--price", "1")
	assert.ErrorIs(t, err, journal.ErrNotFound)
}

func TestJournalRmUnknown(t *testing.T) {
	journalBackend(t)

	_, err := run(t, "journal", "rm", "nope")
	require.Error(t, err)
	assert.Equal(t, journal.MsgDeleteFailed, err.Error())
}

func TestJournalRmReloadFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, `{"detail":"down"}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("COIN_JOURNAL_BASE_URL", srv.URL+"/api")

	out, err := run(t, "journal", "rm", "t1")
	require.NoError(t, err, "the delete itself succeeded")
	assert.Contains(t, out, journal.MsgDeleted)
}

func TestJournalServiceDown(t *testing.T) {
	t.Setenv("COIN_JOURNAL_BASE_URL", "http://127.0.0.1:1/api")

	_, err := run(t, "journal", "list")
	require.Error(t, err)
	assert.Equal(t, journal.MsgLoadFailed, err.Error())
}

func TestJournalExport(t *testing.T) {
	db := journalBackend(t)
	ctx := context.Background()

	for _, day := range []string{"2024-01-10", "2024-02-10", "2024-03-10"} {
		d, err := time.ParseInLocation("2006-01-02", day, time.Local)
		require.NoError(t, err)
		_, err = db.CreateTrade(ctx, journal.TradeInput{
			Market: "KRW-BTC", Action: journal.Buy, Quantity: 1, Price: 1000, TradeDate: d.Add(12 * time.Hour),
		})
		require.NoError(t, err)
	}

	out, err := run(t, "journal", "export", "--format", "csv", "--from", "2024-02-01", "--to", "2024-03-10")
	require.NoError(t, err)
	lines := bytes.Count([]byte(out), []byte("\n"))
	assert.Equal(t, 3, lines, "header plus two trades")

	dbPath := filepath.Join(t.TempDir(), "local.db")
	local, err := journal.NewSQLite(dbPath)
	require.NoError(t, err)
	_, err = local.CreateTrade(ctx, journal.TradeInput{
		Market: "KRW-XRP", Action: journal.Sell, Quantity: 10, Price: 700, TradeDate: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, local.Close())

	out, err = run(t, "journal", "export", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "KRW-XRP")
	assert.NotContains(t, out, "KRW-BTC")

	_, err = run(t, "journal", "export", "--format", "xml")
	assert.Error(t, err)

	_, err = run(t, "journal", "export", "--from", "2024-03-01", "--to", "2024-02-01")
	assert.Error(t, err)
}

const backtestResponse = `{
	"success": true,
	"market": "KRW-ETH",
	"data_period": {"start": "2023-01-01", "end": "2024-05-15", "days": 365},
	"metrics": {
		"initial_capital": 20000000,
		"final_value": 24000000,
		"total_return": 20,
		"buy_hold_return": 15.5,
		"num_trades": 8,
		"win_rate": 62.5,
		"max_drawdown": 9.1,
		"sharpe_ratio": 1.1,
		"uptrend_probability": 55
	},
	"chart_image": "data:image/png;base64,iVBORw0KGgo=",
	"signals": {"buy_count": 4, "sell_count": 4}
}`

func TestBacktestRun(t *testing.T) {
	var got backtest.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/backtest", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(backtestResponse))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("COIN_BACKTEST_BASE_URL", srv.URL)

	dir := t.TempDir()
	chart := filepath.Join(dir, "eth.png")
	org := filepath.Join(dir, "runs.org")

	out, err := run(t, "backtest", "run",
		"--market", "krw-eth", "--days", "365", "--capital", "20000000", "--use-api",
		"--chart", chart, "--org", org)
	require.NoError(t, err)

	assert.Equal(t, backtest.Request{Market: "KRW-ETH", Days: 365, InitialCapital: 20_000_000, UseAPI: true}, got)
	assert.Contains(t, out, "24,000,000원")
	assert.Contains(t, out, "+20.00%")

	png, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), png)

	entry, err := os.ReadFile(org)
	require.NoError(t, err)
	assert.Contains(t, string(entry), "* BACKTEST: KRW-ETH 365d")
	assert.Contains(t, string(entry), "[[file:"+chart+"]]")
}

func TestBacktestRunFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success": false, "error": "no data"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("COIN_BACKTEST_BASE_URL", srv.URL)

	_, err := run(t, "backtest", "run")
	require.Error(t, err)
	assert.Equal(t, backtest.MsgRunFailed, err.Error())

	_, err = run(t, "backtest", "run", "--days", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "days must be between")

	_, err = run(t, "backtest", "run", "--market", "KRW-DOGE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown market")
}

func TestBacktestMarkets(t *testing.T) {
	out, err := run(t, "backtest", "markets")
	require.NoError(t, err)
	for _, m := range backtest.Markets {
		assert.Contains(t, out, m.Code)
	}
}

func TestConfigInitValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coinfolio.yaml")

	out, err := run(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = run(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("journal:\n  base_url: ftp://x\n"), 0o644))
	_, err = run(t, "config", "validate", "-f", bad)
	assert.Error(t, err)
}

func TestConfigShowUsesEnvironment(t *testing.T) {
	t.Setenv("COIN_JOURNAL_BASE_URL", "http://journal.internal:9000/api")

	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "http://journal.internal:9000/api")
}

func TestPriceFeedURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8000/api", "ws://localhost:8000/ws/prices"},
		{"https://journal.example.com/api?x=1", "wss://journal.example.com/ws/prices"},
	}
	for _, tt := range tests {
		got, err := priceFeedURL(tt.base)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
