package collector

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"GreenMetrics/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols without fixed bars get a deterministic random walk seeded from
// Seed and the symbol name.
type MockFetcher struct {
	Seed  int64
	Price float64
	Bars  map[string][]model.PriceBar
	Err   map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Err[symbol]; err != nil {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return m.generate(symbol, from, to), nil
}

func (m *MockFetcher) generate(symbol string, from, to time.Time) []model.PriceBar {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(m.Seed ^ int64(h.Sum64())))

	price := m.Price
	if price <= 0 {
		price = 50
	}
	var bars []model.PriceBar
	for d := model.DateOf(from); !d.After(model.DateOf(to)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		open := price
		price *= math.Exp(rng.NormFloat64() * 0.012)
		spread := price * 0.004 * rng.Float64()
		bars = append(bars, model.PriceBar{
			Date:     d,
			Open:     open,
			High:     math.Max(open, price) + spread,
			Low:      math.Min(open, price) - spread,
			Close:    price,
			AdjClose: price,
			Volume:   math.Round(200000 * math.Exp(rng.NormFloat64()*0.5)),
		})
	}
	return bars
}
