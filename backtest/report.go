package backtest

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/KANG-Hyeong-uk/coin/internal/format"
)

// ErrNoChart is returned when a result carries no chart image.
var ErrNoChart = errors.New("result has no chart image")

// PrintResult writes a plain text summary of r.
func PrintResult(w io.Writer, r *Result) {
	m := r.Metrics

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Market:        %s\n", marketLabel(r.Market))
	fmt.Fprintf(w, "Period:        %s ~ %s (%d days)\n", r.DataPeriod.Start, r.DataPeriod.End, r.DataPeriod.Days)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Returns")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Initial:       %s\n", format.KRW(m.InitialCapital))
	fmt.Fprintf(w, "Final:         %s\n", format.KRW(m.FinalValue))
	fmt.Fprintf(w, "Strategy:      %s\n", format.Percent(m.TotalReturn))
	fmt.Fprintf(w, "Buy & Hold:    %s\n", format.Percent(m.BuyHoldReturn))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Risk")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", m.NumTrades)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", m.WinRate)
	fmt.Fprintf(w, "Max Drawdown:  -%.2f%%\n", m.MaxDrawdown)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", m.SharpeRatio)
	fmt.Fprintf(w, "Uptrend Prob.: %.2f%%\n", m.UptrendProbability)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Signals:       %d buy / %d sell\n", r.Signals.BuyCount, r.Signals.SellCount)
	fmt.Fprintln(w, "==================================================")
}

func marketLabel(code string) string {
	if m, ok := LookupMarket(code); ok {
		return m.Code + " " + m.Name
	}
	return code
}

// ChartPNG decodes the chart image. Data URL prefixes are accepted.
func (r *Result) ChartPNG() ([]byte, error) {
	s := strings.TrimSpace(r.ChartImage)
	if s == "" {
		return nil, ErrNoChart
	}
	if _, data, ok := strings.Cut(s, "base64,"); ok {
		s = data
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode chart image: %w", err)
	}
	return b, nil
}

// SaveChart writes the decoded chart image to path.
func (r *Result) SaveChart(path string) error {
	b, err := r.ChartPNG()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

var orgFuncs = template.FuncMap{
	"krw": format.KRW,
	"pct": format.Percent,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var orgTemplate = template.Must(template.New("backtest").Funcs(orgFuncs).Parse(OrgTemplate))

// orgView is what OrgTemplate renders.
type orgView struct {
	*Result
	Created   time.Time
	ChartPath string
}

// WriteOrg renders r as an org-mode entry. chartPath, when set, is linked
// from the entry.
func WriteOrg(w io.Writer, r *Result, created time.Time, chartPath string) error {
	return orgTemplate.Execute(w, orgView{Result: r, Created: created, ChartPath: chartPath})
}

const OrgTemplate = `* BACKTEST: {{.Market}} {{.DataPeriod.Days}}d
:PROPERTIES:
:MARKET:      {{.Market}}
:START_DATE:  {{.DataPeriod.Start}}
:END_DATE:    {{.DataPeriod.End}}
:START_BAL:   {{printf "%.0f" .Metrics.InitialCapital}}
:END_BAL:     {{printf "%.0f" .Metrics.FinalValue}}
:RETURN_PCT:  {{printf "%.2f" .Metrics.TotalReturn}}
:HOLD_PCT:    {{printf "%.2f" .Metrics.BuyHoldReturn}}
:MAX_DD_PCT:  {{printf "%.2f" .Metrics.MaxDrawdown}}
:TRADES:      {{.Metrics.NumTrades}}
:WIN_RATE:    {{printf "%.2f" .Metrics.WinRate}}
:SHARPE:      {{printf "%.2f" .Metrics.SharpeRatio}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Final Value:      *{{krw .Metrics.FinalValue}}*
- Return:           *{{pct .Metrics.TotalReturn}}*
- Buy & Hold:       *{{pct .Metrics.BuyHoldReturn}}*
- Max Drawdown:     *-{{printf "%.2f" .Metrics.MaxDrawdown}}%*
- Win Rate:         *{{printf "%.2f" .Metrics.WinRate}}%*
- Uptrend Prob.:    *{{printf "%.2f" .Metrics.UptrendProbability}}%*
- Signals:          {{.Signals.BuyCount}} buy / {{.Signals.SellCount}} sell
{{- if .ChartPath}}

** Chart
[[file:{{.ChartPath}}]]
{{- end}}
`
