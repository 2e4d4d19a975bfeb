package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"GreenMetrics/internal/model"
)

// maxConcurrentFetches bounds in-flight downloads; the fetcher's own rate
// limiter still applies.
const maxConcurrentFetches = 4

var ErrNoData = errors.New("no series could be collected")

// Dataset is the collected, validated series keyed by symbol. Failed holds
// symbols that could not be fetched or validated.
type Dataset struct {
	Period model.Period
	Series map[string]*model.AssetSeries
	Failed map[string]error
}

// Get returns the series for symbol, or nil.
func (d *Dataset) Get(symbol string) *model.AssetSeries {
	return d.Series[symbol]
}

// Collector orchestrates data fetching and series construction.
type Collector struct {
	Fetcher Fetcher
	logger  *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, logger *zap.Logger) *Collector {
	return &Collector{Fetcher: fetcher, logger: logger.Named("collector")}
}

// Collect fetches every symbol over span and builds an AssetSeries for each.
// A symbol that fails is recorded in Dataset.Failed and does not stop the
// others; the call fails only when nothing could be collected or ctx ends.
func (c *Collector) Collect(ctx context.Context, symbols []string, span model.Period) (*Dataset, error) {
	ds := &Dataset{
		Period: span,
		Series: make(map[string]*model.AssetSeries, len(symbols)),
		Failed: make(map[string]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, sym := range symbols {
		g.Go(func() error {
			s, err := c.fetchSeries(gctx, sym, span)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("collect failed", zap.String("symbol", sym), zap.Error(err))
				ds.Failed[sym] = err
				return nil
			}
			ds.Series[sym] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(ds.Series) == 0 {
		return nil, fmt.Errorf("%w: %d symbols failed", ErrNoData, len(ds.Failed))
	}
	c.logger.Info("collection done",
		zap.String("source", c.Fetcher.Name()),
		zap.Int("collected", len(ds.Series)),
		zap.Int("failed", len(ds.Failed)))
	return ds, nil
}

func (c *Collector) fetchSeries(ctx context.Context, symbol string, span model.Period) (*model.AssetSeries, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, span.From, span.To)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	s, err := model.NewAssetSeries(symbol, bars)
	if err != nil {
		return nil, err
	}
	if gaps := s.Gaps(); len(gaps) > 0 {
		missing := 0
		for _, g := range gaps {
			missing += g.MissingWeekdays
			c.logger.Debug("gap", zap.String("symbol", symbol),
				zap.Time("after", g.After), zap.Time("before", g.Before), zap.Int("weekdays", g.MissingWeekdays))
		}
		c.logger.Info("flagged gaps", zap.String("symbol", symbol), zap.Int("gaps", len(gaps)), zap.Int("missing_weekdays", missing))
	}
	return s, nil
}

// CommonPeriod returns the date range covered by every series: the latest
// first date to the earliest last date.
func CommonPeriod(series ...*model.AssetSeries) (model.Period, error) {
	if len(series) == 0 {
		return model.Period{}, model.ErrEmptySeries
	}
	p := series[0].Period()
	for _, s := range series[1:] {
		sp := s.Period()
		if sp.From.After(p.From) {
			p.From = sp.From
		}
		if sp.To.Before(p.To) {
			p.To = sp.To
		}
	}
	if p.From.After(p.To) {
		return model.Period{}, fmt.Errorf("series do not overlap (%s): %w", p, model.ErrEmptySeries)
	}
	return p, nil
}

// TrimToCommon slices every series to their common period, preserving order.
func TrimToCommon(series ...*model.AssetSeries) ([]*model.AssetSeries, model.Period, error) {
	p, err := CommonPeriod(series...)
	if err != nil {
		return nil, model.Period{}, err
	}
	out := make([]*model.AssetSeries, len(series))
	for i, s := range series {
		if out[i], err = s.Slice(p); err != nil {
			return nil, model.Period{}, err
		}
	}
	return out, p, nil
}
