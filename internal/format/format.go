// Package format renders money, percentages and sparklines for the
// terminal views.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// KRW formats v as whole won with thousands separators: "10,000,000원".
func KRW(v float64) string {
	return Number(v, 0) + "원"
}

// USD formats v as dollars with exactly two decimals: "$67,842.35".
func USD(v float64) string {
	s := Number(v, 2)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// Percent formats v with two decimals and an explicit sign for
// non-negative values: "+1.85%", "-2.48%".
func Percent(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	if v >= 0 {
		s = "+" + s
	}
	return s + "%"
}

// Number rounds v to places decimals and groups the integer part by
// thousands.
func Number(v float64, places int32) string {
	s := decimal.NewFromFloat(v).StringFixed(places)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values as a one-line bar chart of at most width cells.
// Longer series are sampled evenly.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		sampled := make([]float64, width)
		for i := range sampled {
			sampled[i] = values[i*len(values)/width]
		}
		sampled[width-1] = values[len(values)-1]
		values = sampled
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var b strings.Builder
	top := len(sparkRunes) - 1
	for _, v := range values {
		idx := top / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(top))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
