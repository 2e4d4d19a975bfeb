package analyzer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"GreenMetrics/internal/calculator"
	"GreenMetrics/internal/collector"
	"GreenMetrics/internal/model"
)

// VolumeWindows are the early and late periods compared by volume growth.
type VolumeWindows struct {
	Early model.Period
	Late  model.Period
}

// Options configures an Analyzer.
type Options struct {
	Metrics calculator.Config
	// Volume is nil when no growth comparison is configured.
	Volume      *VolumeWindows
	Events      []model.MarketEvent
	Concurrency int
}

// Analyzer runs every estimator over the collected dataset and assembles
// the results table.
type Analyzer struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func New(opts Options, logger *zap.Logger) *Analyzer {
	opts.Metrics = opts.Metrics.WithDefaults()
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	return &Analyzer{opts: opts, logger: logger.Named("analyzer"), now: time.Now}
}

// Run evaluates each asset against its benchmarks. Assets are processed in
// parallel, each on its own immutable series; row order follows assets.
// Estimator failures become rows with a non-OK status and never abort the run.
func (a *Analyzer) Run(ctx context.Context, assets []model.Asset, ds *collector.Dataset) (*Report, error) {
	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: a.now().UTC(),
		Period:      ds.Period,
		Assets:      assets,
	}
	perAsset := make([][]model.MetricResult, len(assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for i, asset := range assets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perAsset[i] = a.analyzeAsset(asset, ds)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	for _, rows := range perAsset {
		report.Results = append(report.Results, rows...)
	}
	a.logger.Info("analysis done",
		zap.String("run_id", report.RunID),
		zap.Int("assets", len(assets)),
		zap.Int("rows", len(report.Results)),
		zap.Int("failed", report.Failed()))
	return report, nil
}

func (a *Analyzer) analyzeAsset(asset model.Asset, ds *collector.Dataset) []model.MetricResult {
	b := &rowBuilder{asset: asset.Symbol}
	series := ds.Get(asset.Symbol)
	if series == nil {
		note := "not collected"
		if err := ds.Failed[asset.Symbol]; err != nil {
			note = err.Error()
		}
		b.failed(MetricSeries, model.WindowWholePeriod, ds.Period, calculator.ErrInsufficientData, note)
		return b.rows
	}

	var benches []*model.AssetSeries
	for _, sym := range asset.Benchmarks {
		if s := ds.Get(sym); s != nil {
			benches = append(benches, s)
		} else {
			a.logger.Warn("benchmark unavailable", zap.String("asset", asset.Symbol), zap.String("benchmark", sym))
		}
	}
	if len(benches) > 0 {
		trimmed, span, err := collector.TrimToCommon(append([]*model.AssetSeries{series}, benches...)...)
		if err != nil {
			a.logger.Warn("no common period with benchmarks", zap.String("asset", asset.Symbol), zap.Error(err))
		} else {
			series, benches = trimmed[0], trimmed[1:]
			a.logger.Debug("common period", zap.String("asset", asset.Symbol), zap.Stringer("period", span))
		}
	}

	cfg := a.opts.Metrics
	span := series.Period()
	returns := series.Returns()

	b.scalar(MetricFlaggedGaps, model.WindowWholePeriod, span, float64(len(series.Gaps())), nil, "")

	// Liquidity.
	illiq, err := calculator.Illiquidity(series, cfg)
	b.scalar(MetricAmihud, model.WindowWholePeriod, span, illiq.Score, err,
		fmt.Sprintf("%d valid days, scale %g", illiq.ValidDays, cfg.AmihudScale))
	b.series(MetricAmihudDaily, "daily", span, illiq.Daily, nil)
	b.scalar(MetricZeroReturnFraction, model.WindowWholePeriod, span, illiq.ZeroReturnFraction, illiq.FractionErr(),
		fmt.Sprintf("%d of %d returns within %g of zero", illiq.ZeroReturnDays, illiq.Returns, cfg.ZeroReturnEpsilon()))
	b.scalar(MetricMissingVolumeDays, model.WindowWholePeriod, span, float64(len(illiq.MissingVolumeDays)), illiq.MissingVolumeErr(),
		formatDates(illiq.MissingVolumeDays, 5))

	vs, err := calculator.VolumeStats(series)
	b.scalar(MetricAvgDailyVolume, model.WindowWholePeriod, span, vs.AvgDailyVolume, err, "")
	b.scalar(MetricVolumeCV, model.WindowWholePeriod, span, vs.CoefficientOfVariation, err, "")
	b.scalar(MetricVolumeTrend, model.WindowWholePeriod, span, vs.TrendPerDay, err, "")

	if w := a.opts.Volume; w != nil {
		g, err := calculator.VolumeGrowth(series, w.Early, w.Late)
		b.scalar(MetricVolumeGrowth, fmt.Sprintf("early %s vs late %s", w.Early, w.Late), span, g.GrowthPct, err,
			fmt.Sprintf("mean %.0f -> %.0f", g.EarlyMean, g.LateMean))
	}
	rv, err := calculator.RollingVolume(series, cfg.VolumeSmoothingWindow)
	b.series(MetricRollingVolume, rollingWindow(cfg.VolumeSmoothingWindow), span, rv, err)

	// Market maturation.
	hr, err := calculator.Hurst(returns, cfg)
	note := calculator.ClassifyHurst(hr.H, cfg.HurstRandomWalkBand).Description()
	if err != nil && len(hr.Dropped) > 0 {
		note = fmt.Sprintf("%d window sizes dropped", len(hr.Dropped))
	}
	b.scalar(MetricHurst, model.WindowWholePeriod, returns.Period(), hr.H, err, note)

	// Risk.
	perf, err := calculator.Performance(returns, cfg)
	rp := returns.Period()
	// Volatility and return stay defined for a flat series.
	baseErr := err
	if calculator.KindOf(err) == calculator.KindDivisionByZero {
		baseErr = nil
	}
	b.scalar(MetricAnnualVolatility, model.WindowWholePeriod, rp, perf.AnnualVolatility, baseErr, "")
	b.scalar(MetricAnnualReturn, model.WindowWholePeriod, rp, perf.AnnualReturn, baseErr, "")
	b.scalar(MetricSharpe, model.WindowWholePeriod, rp, perf.Sharpe, err, "risk-free rate 0")
	b.scalar(MetricSkewness, model.WindowWholePeriod, rp, perf.Skewness, err, "")
	b.scalar(MetricExcessKurtosis, model.WindowWholePeriod, rp, perf.ExcessKurtosis, err, "")
	b.scalar(MetricVaR, model.WindowWholePeriod, rp, perf.VaR, baseErr, "")
	b.scalar(MetricCVaR, model.WindowWholePeriod, rp, perf.CVaR, baseErr, "")
	b.scalar(MetricMaxDrawdown, model.WindowWholePeriod, rp, perf.MaxDrawdown, baseErr, "cumulative simple returns")

	for _, bench := range benches {
		a.benchmarkRows(b, returns, bench)
	}

	for _, ev := range calculator.EventImpacts(series, a.opts.Events, cfg.EventHalfWindowDays) {
		b.scalar(MetricEventImpact, ev.Window.String(), ev.Window, ev.ImpactPct, nil,
			fmt.Sprintf("%s (%s)", ev.Event.Name, ev.Event.Date.Format(model.DateLayout)))
	}

	a.logger.Debug("asset analyzed", zap.String("asset", asset.Symbol), zap.Int("rows", len(b.rows)))
	return b.rows
}

func (a *Analyzer) benchmarkRows(b *rowBuilder, returns model.ReturnSeries, bench *model.AssetSeries) {
	cfg := a.opts.Metrics
	sym := bench.Symbol()

	aligned, err := calculator.Align(returns, bench.Returns())
	if err != nil {
		for _, m := range []string{MetricCorrelation, MetricRollingCorrelation, MetricKendall, MetricVolatilityRatio} {
			b.failed(VsBenchmark(m, sym), model.WindowWholePeriod, returns.Period(), err, "")
		}
		return
	}
	ap := model.Period{From: aligned.Dates[0], To: aligned.Dates[aligned.Len()-1]}

	var static float64
	pairs, err := calculator.StaticCorrelation(aligned)
	if err == nil {
		static, err = pairs[0].Value, pairs[0].Err
	}
	b.scalar(VsBenchmark(MetricCorrelation, sym), model.WindowWholePeriod, ap, static, err,
		fmt.Sprintf("pearson, %d common days", aligned.Len()))

	roll, err := calculator.RollingCorrelation(aligned.Series(0), aligned.Series(1), cfg.RollingWindowDays)
	note := ""
	if roll.Undefined > 0 {
		note = fmt.Sprintf("%d undefined windows", roll.Undefined)
	}
	b.seriesNote(VsBenchmark(MetricRollingCorrelation, sym), rollingWindow(cfg.RollingWindowDays), ap, roll.Points, err, note)

	var tau float64
	km, err := calculator.Kendall(aligned)
	if err == nil {
		tau = km.Values[0][1]
	}
	b.scalar(VsBenchmark(MetricKendall, sym), model.WindowWholePeriod, ap, tau, err, "tau-b")

	own, errOwn := calculator.Performance(aligned.Series(0), cfg)
	other, errOther := calculator.Performance(aligned.Series(1), cfg)
	ratio := math.NaN()
	var ratioErr error
	switch {
	case calculator.KindOf(errOwn) == calculator.KindInsufficientData:
		ratioErr = errOwn
	case calculator.KindOf(errOther) == calculator.KindInsufficientData:
		ratioErr = errOther
	case other.AnnualVolatility == 0:
		ratioErr = fmt.Errorf("%s has zero volatility: %w", sym, calculator.ErrDivisionByZero)
	default:
		ratio = own.AnnualVolatility / other.AnnualVolatility
	}
	b.scalar(VsBenchmark(MetricVolatilityRatio, sym), model.WindowWholePeriod, ap, ratio, ratioErr, "annualized volatility ratio")
}

func rollingWindow(days int) string {
	return fmt.Sprintf("rolling %dd", days)
}

func formatDates(dates []time.Time, max int) string {
	if len(dates) == 0 {
		return ""
	}
	parts := make([]string, 0, max+1)
	for i, d := range dates {
		if i == max {
			parts = append(parts, fmt.Sprintf("+%d more", len(dates)-max))
			break
		}
		parts = append(parts, d.Format(model.DateLayout))
	}
	return strings.Join(parts, ", ")
}
