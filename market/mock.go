package market

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

// DefaultVolatility is the per-step swing used for card charts.
const DefaultVolatility = 0.05

// cardPoints is the number of hourly samples on a price card.
const cardPoints = 24

type seedCoin struct {
	id, name, symbol, logo string
	price, change, pct     float64
}

var catalogue = []seedCoin{
	{"bitcoin", "Bitcoin", "BTC", "₿", 67842.35, 1234.56, 1.85},
	{"ethereum", "Ethereum", "ETH", "Ξ", 3456.78, -87.92, -2.48},
	{"ripple", "Ripple", "XRP", "XRP", 0.5678, 0.0234, 4.31},
	{"luna", "Terra Luna", "LUNA", "LUNA", 98.45, 5.67, 6.11},
}

// Generator produces the synthetic coin data shown on the dashboard.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator returns a generator seeded with seed. A zero seed uses the
// current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// ChartData walks a random series of n hourly points away from base. Each
// price is floored at half of base and the last point lands an hour before
// now.
func (g *Generator) ChartData(base float64, n int, volatility float64) []ChartPoint {
	if n <= 0 {
		return nil
	}
	if volatility <= 0 {
		volatility = DefaultVolatility
	}

	now := g.now()
	floor := base * 0.5
	price := base

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]ChartPoint, 0, n)
	for i := 0; i < n; i++ {
		price += (g.rng.Float64() - 0.5) * 2 * volatility * base
		p := price
		if p < floor {
			p = floor
		}
		out = append(out, ChartPoint{
			Time:   now.Add(-time.Duration(n-i) * time.Hour),
			Price:  p,
			Volume: g.rng.Float64() * 1e9,
		})
	}
	return out
}

// ROIStats fabricates a return-on-investment summary.
func (g *Generator) ROIStats() ROIStats {
	invested := g.float()*50000 + 10000
	current := invested * (0.8 + g.float()*1.5)

	return ROIStats{
		Max: ROIPoint{
			Date:       g.pastDate(),
			Amount:     current * 1.3,
			Percentage: 130 + g.float()*100,
		},
		Min: ROIPoint{
			Date:       g.pastDate(),
			Amount:     invested * 0.6,
			Percentage: -40 - g.float()*20,
		},
		Average:         (current - invested) / invested * 100,
		TotalInvestment: invested,
		CurrentValue:    current,
	}
}

// pastDate is a day within the last year, formatted YYYY-MM-DD.
func (g *Generator) pastDate() string {
	back := time.Duration(g.float() * float64(365*24*time.Hour))
	return g.now().Add(-back).UTC().Format("2006-01-02")
}

// Coins returns the fixed catalogue with freshly generated card charts.
func (g *Generator) Coins() []Coin {
	out := make([]Coin, 0, len(catalogue))
	for _, s := range catalogue {
		out = append(out, Coin{
			ID:                       s.id,
			Name:                     s.name,
			Symbol:                   s.symbol,
			CurrentPrice:             s.price,
			PriceChange24h:           s.change,
			PriceChangePercentage24h: s.pct,
			Logo:                     s.logo,
			Chart:                    g.ChartData(s.price, cardPoints, DefaultVolatility),
		})
	}
	return out
}

// Lookup finds a catalogue coin by id or symbol, case-insensitively.
func (g *Generator) Lookup(key string) (Coin, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, c := range g.Coins() {
		if c.ID == key || strings.ToLower(c.Symbol) == key {
			return c, nil
		}
	}
	return Coin{}, ErrUnknownCoin
}

// Detail regenerates the ROI summary and every timeframe chart for c.
// Nothing is cached: two calls give two different histories.
func (g *Generator) Detail(c Coin) CoinDetail {
	charts := make(map[TimeFrame][]ChartPoint, len(TimeFrames))
	for _, tf := range TimeFrames {
		charts[tf] = g.ChartData(c.CurrentPrice, tf.Points(), DefaultVolatility)
	}
	return CoinDetail{
		Coin:   c,
		ROI:    g.ROIStats(),
		Charts: charts,
	}
}

// UpdatePrice moves the price by up to ±1% and reports that move as the
// 24h change.
func (g *Generator) UpdatePrice(c Coin) Coin {
	change := (g.float() - 0.5) * 0.02 * c.CurrentPrice
	pct := 0.0
	if c.CurrentPrice != 0 {
		pct = change / c.CurrentPrice * 100
	}

	c.CurrentPrice += change
	c.PriceChange24h = change
	c.PriceChangePercentage24h = pct
	return c
}
