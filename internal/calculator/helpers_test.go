package calculator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"GreenMetrics/internal/model"
)

var testStart = time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC) // Monday

func ptr(v float64) *float64 { return &v }

// tradingDays returns n consecutive weekdays starting at testStart.
func tradingDays(n int) []time.Time {
	days := make([]time.Time, 0, n)
	for d := testStart; len(days) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days = append(days, d)
		}
	}
	return days
}

func newSeries(t *testing.T, symbol string, closes, volumes []float64) *model.AssetSeries {
	t.Helper()
	days := tradingDays(len(closes))
	bars := make([]model.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = model.PriceBar{Date: days[i], Open: c, High: c, Low: c, Close: c, AdjClose: c, Volume: volumes[i]}
	}
	s, err := model.NewAssetSeries(symbol, bars)
	require.NoError(t, err)
	return s
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func returnSeries(symbol string, values []float64) model.ReturnSeries {
	days := tradingDays(len(values))
	rs := model.ReturnSeries{Symbol: symbol, Points: make([]model.ReturnPoint, len(values))}
	for i, v := range values {
		rs.Points[i] = model.ReturnPoint{Date: days[i], Value: v}
	}
	return rs
}

func gaussian(seed int64, n int, sigma float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}
