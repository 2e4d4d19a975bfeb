package collector

import (
	"context"
	"time"

	"GreenMetrics/internal/model"
)

// Fetcher defines the interface for fetching market data. Bars are returned
// in ascending date order for the inclusive range [from, to].
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceBar, error)
	Name() string
}
