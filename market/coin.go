package market

import (
	"fmt"
	"strings"
	"time"
)

// ChartPoint is one sample of a price series.
type ChartPoint struct {
	Time   time.Time `json:"timestamp"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume,omitempty"`
}

// Coin is the snapshot rendered on a price card.
type Coin struct {
	ID                       string       `json:"id"`
	Name                     string       `json:"name"`
	Symbol                   string       `json:"symbol"`
	CurrentPrice             float64      `json:"current_price"`
	PriceChange24h           float64      `json:"price_change_24h"`
	PriceChangePercentage24h float64      `json:"price_change_percentage_24h"`
	Logo                     string       `json:"logo"`
	Chart                    []ChartPoint `json:"chart,omitempty"`
}

// Rising reports whether the 24h change is non-negative.
func (c Coin) Rising() bool {
	return c.PriceChangePercentage24h >= 0
}

// ROIPoint is an extreme of the return-on-investment history.
type ROIPoint struct {
	Date       string  `json:"date"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

type ROIStats struct {
	Max             ROIPoint `json:"max_roi"`
	Min             ROIPoint `json:"min_roi"`
	Average         float64  `json:"average_roi"`
	TotalInvestment float64  `json:"total_investment"`
	CurrentValue    float64  `json:"current_value"`
}

// TimeFrame selects one of the detail charts.
type TimeFrame string

const (
	TimeFrame1H  TimeFrame = "1H"
	TimeFrame24H TimeFrame = "24H"
	TimeFrame7D  TimeFrame = "7D"
	TimeFrame1M  TimeFrame = "1M"
	TimeFrame1Y  TimeFrame = "1Y"
)

// TimeFrames lists the detail charts in display order.
var TimeFrames = []TimeFrame{TimeFrame1H, TimeFrame24H, TimeFrame7D, TimeFrame1M, TimeFrame1Y}

// Points is the number of hourly samples generated for the frame.
func (tf TimeFrame) Points() int {
	switch tf {
	case TimeFrame1H:
		return 60
	case TimeFrame24H:
		return 24
	case TimeFrame7D:
		return 168
	case TimeFrame1M:
		return 720
	case TimeFrame1Y:
		return 8760
	default:
		return 0
	}
}

// Next cycles to the following frame, wrapping around.
func (tf TimeFrame) Next() TimeFrame {
	for i, f := range TimeFrames {
		if f == tf {
			return TimeFrames[(i+1)%len(TimeFrames)]
		}
	}
	return TimeFrames[0]
}

func ParseTimeFrame(s string) (TimeFrame, error) {
	tf := TimeFrame(strings.ToUpper(strings.TrimSpace(s)))
	if tf.Points() == 0 {
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
	return tf, nil
}

// CoinDetail is a coin plus the synthetic history shown in the detail view.
type CoinDetail struct {
	Coin
	ROI    ROIStats                   `json:"roi_stats"`
	Charts map[TimeFrame][]ChartPoint `json:"detailed_chart_data"`
}

// Prices returns the price column of a series.
func Prices(pts []ChartPoint) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Price
	}
	return out
}
