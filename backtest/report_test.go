package backtest

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Result {
	t.Helper()
	var r Result
	require.NoError(t, json.Unmarshal([]byte(sampleResult), &r))
	return &r
}

func TestPrintResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintResult(&buf, sample(t))
	out := buf.String()

	assert.Contains(t, out, "KRW-ETH Ethereum (ETH)")
	assert.Contains(t, out, "2023-01-01 ~ 2024-05-15 (500 days)")
	assert.Contains(t, out, "10,000,000원")
	assert.Contains(t, out, "12,345,678원")
	assert.Contains(t, out, "Strategy:      +23.46%")
	assert.Contains(t, out, "Max Drawdown:  -12.50%")
	assert.Contains(t, out, "7 buy / 7 sell")
}

func TestWriteOrg(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 16, 9, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, WriteOrg(&buf, sample(t), created, "eth.png"))
	out := buf.String()

	assert.Contains(t, out, "* BACKTEST: KRW-ETH 500d\n")
	assert.Contains(t, out, ":RETURN_PCT:  23.46\n")
	assert.Contains(t, out, ":TRADES:      14\n")
	assert.Contains(t, out, ":CREATED:     [2024-05-16 Thu 09:30]")
	assert.Contains(t, out, "- Return:           *+23.46%*")
	assert.Contains(t, out, "[[file:eth.png]]")

	buf.Reset()
	require.NoError(t, WriteOrg(&buf, sample(t), created, ""))
	assert.NotContains(t, buf.String(), "** Chart")
}

func TestChartPNG(t *testing.T) {
	t.Parallel()

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	enc := base64.StdEncoding.EncodeToString(png)

	r := &Result{ChartImage: enc}
	got, err := r.ChartPNG()
	require.NoError(t, err)
	assert.Equal(t, png, got)

	r.ChartImage = "data:image/png;base64," + enc
	got, err = r.ChartPNG()
	require.NoError(t, err)
	assert.Equal(t, png, got)

	r.ChartImage = ""
	_, err = r.ChartPNG()
	assert.ErrorIs(t, err, ErrNoChart)

	r.ChartImage = "%%%"
	_, err = r.ChartPNG()
	assert.Error(t, err)
}

func TestSaveChart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chart.png")
	r := &Result{ChartImage: base64.StdEncoding.EncodeToString([]byte("png-bytes"))}
	require.NoError(t, r.SaveChart(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
}
