package analyzer

import (
	"time"

	"GreenMetrics/internal/model"
)

// Metric names used in the results table.
const (
	MetricSeries             = "series"
	MetricFlaggedGaps        = "flagged_gaps"
	MetricAmihud             = "amihud_illiquidity"
	MetricAmihudDaily        = "amihud_daily"
	MetricZeroReturnFraction = "zero_return_fraction"
	MetricMissingVolumeDays  = "missing_volume_days"
	MetricAvgDailyVolume     = "avg_daily_volume"
	MetricVolumeCV           = "volume_cv"
	MetricVolumeTrend        = "volume_trend_per_day"
	MetricVolumeGrowth       = "volume_growth_pct"
	MetricRollingVolume      = "rolling_volume"
	MetricHurst              = "hurst_exponent"
	MetricAnnualVolatility   = "annual_volatility"
	MetricAnnualReturn       = "annual_return"
	MetricSharpe             = "sharpe_ratio"
	MetricSkewness           = "skewness"
	MetricExcessKurtosis     = "excess_kurtosis"
	MetricVaR                = "var_5pct"
	MetricCVaR               = "cvar_5pct"
	MetricMaxDrawdown        = "max_drawdown"
	MetricEventImpact        = "event_impact_pct"

	// Benchmark-relative metrics are suffixed with "_vs_<SYMBOL>".
	MetricCorrelation        = "correlation"
	MetricRollingCorrelation = "rolling_correlation"
	MetricKendall            = "kendall_tau"
	MetricVolatilityRatio    = "volatility_ratio"
)

// VsBenchmark names a benchmark-relative metric.
func VsBenchmark(metric, benchmark string) string {
	return metric + "_vs_" + benchmark
}

// Report is the results table of one study run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Period      model.Period
	Source      string
	Assets      []model.Asset
	Results     []model.MetricResult
}

// Find returns the first row for asset and metric.
func (r *Report) Find(asset, metric string) (model.MetricResult, bool) {
	for _, res := range r.Results {
		if res.Asset == asset && res.Metric == metric {
			return res, true
		}
	}
	return model.MetricResult{}, false
}

// ForAsset returns every row for asset, in table order.
func (r *Report) ForAsset(asset string) []model.MetricResult {
	var out []model.MetricResult
	for _, res := range r.Results {
		if res.Asset == asset {
			out = append(out, res)
		}
	}
	return out
}

// Scalars returns the rows that carry a single value.
func (r *Report) Scalars() []model.MetricResult {
	var out []model.MetricResult
	for _, res := range r.Results {
		if !res.IsSeries() {
			out = append(out, res)
		}
	}
	return out
}

// Failed counts rows whose status is not OK.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}
