// Package indicators computes moving averages and volatility over chart
// price series.
package indicators

import (
	"errors"
	"fmt"
	"math"
)

var ErrNotEnoughData = errors.New("not enough data")

// MA is the simple moving average of the last period prices.
func MA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(prices) < period {
		return 0, fmt.Errorf("%w: need %d, got %d", ErrNotEnoughData, period, len(prices))
	}

	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), nil
}

// EMA is an exponential moving average fed one price at a time.
type EMA struct {
	n     int
	alpha float64

	seen  int
	value float64
	name  string
}

func NewEMA(period int) *EMA {
	if period <= 0 {
		panic("EMA period must be > 0")
	}
	return &EMA{
		n:     period,
		alpha: 2.0 / float64(period+1),
		name:  fmt.Sprintf("EMA(%d)", period),
	}
}

func (e *EMA) Name() string     { return e.name }
func (e *EMA) Warmup() int      { return e.n }
func (e *EMA) Ready() bool      { return e.seen >= e.n }
func (e *EMA) Float64() float64 { return e.value }

func (e *EMA) Reset() {
	e.seen = 0
	e.value = 0
}

// Update folds x into the average. The first price seeds it.
func (e *EMA) Update(x float64) {
	e.seen++
	if e.seen == 1 {
		e.value = x
		return
	}
	e.value = e.alpha*x + (1.0-e.alpha)*e.value
}

// Volatility is the population standard deviation of step-to-step percent
// changes. Zero for fewer than two prices.
func Volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	changes := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		changes = append(changes, (prices[i]-prices[i-1])/prices[i-1]*100)
	}
	if len(changes) == 0 {
		return 0
	}

	mean := 0.0
	for _, c := range changes {
		mean += c
	}
	mean /= float64(len(changes))

	ss := 0.0
	for _, c := range changes {
		ss += (c - mean) * (c - mean)
	}
	return math.Sqrt(ss / float64(len(changes)))
}

// Summary is what the coin detail view shows under a chart.
type Summary struct {
	Low, High  float64
	MA         float64
	MAPeriod   int
	EMA        float64
	EMAPeriod  int
	Volatility float64
}

// Summarize computes a Summary over prices. Periods longer than the series
// are shortened to its length.
func Summarize(prices []float64, maPeriod, emaPeriod int) Summary {
	var s Summary
	if len(prices) == 0 {
		return s
	}

	s.Low, s.High = prices[0], prices[0]
	for _, p := range prices {
		s.Low = min(s.Low, p)
		s.High = max(s.High, p)
	}

	s.MAPeriod = min(maPeriod, len(prices))
	s.MA, _ = MA(prices, s.MAPeriod)

	s.EMAPeriod = min(emaPeriod, len(prices))
	ema := NewEMA(s.EMAPeriod)
	for _, p := range prices {
		ema.Update(p)
	}
	s.EMA = ema.Float64()

	s.Volatility = Volatility(prices)
	return s
}
