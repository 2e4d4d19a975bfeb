package calculator

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"GreenMetrics/internal/model"
)

// VolumeGrowthResult compares mean daily volume between two caller-supplied periods.
type VolumeGrowthResult struct {
	Early     model.Period
	Late      model.Period
	EarlyDays int
	LateDays  int
	EarlyMean float64
	LateMean  float64
	GrowthPct float64
}

// VolumeGrowth returns (mean(late) - mean(early)) / mean(early) * 100.
// Boundaries are never inferred: early must end strictly before late starts.
func VolumeGrowth(series *model.AssetSeries, early, late model.Period) (VolumeGrowthResult, error) {
	res := VolumeGrowthResult{Early: early, Late: late, GrowthPct: math.NaN()}
	if early.From.After(early.To) || late.From.After(late.To) || !early.To.Before(late.From) {
		return res, newError("volume growth", ErrInvalidWindow, "early %s must end before late %s", early, late)
	}

	var earlySum, lateSum float64
	for _, b := range series.Bars() {
		switch {
		case early.Contains(b.Date):
			earlySum += b.Volume
			res.EarlyDays++
		case late.Contains(b.Date):
			lateSum += b.Volume
			res.LateDays++
		}
	}
	if res.EarlyDays == 0 || res.LateDays == 0 {
		return res, newError("volume growth", ErrInsufficientData,
			"early period has %d bars, late period has %d", res.EarlyDays, res.LateDays)
	}
	res.EarlyMean = earlySum / float64(res.EarlyDays)
	res.LateMean = lateSum / float64(res.LateDays)
	if res.EarlyMean == 0 {
		return res, newError("volume growth", ErrDivisionByZero, "early period %s has zero mean volume", early)
	}
	res.GrowthPct = (res.LateMean - res.EarlyMean) / res.EarlyMean * 100
	return res, nil
}

// RollingVolume smooths daily volume with a trailing mean of the given window.
// Each point is dated at its window's last day; the first window-1 days are omitted.
func RollingVolume(series *model.AssetSeries, window int) ([]model.Point, error) {
	means, err := RollingMean(series.Volumes(), window)
	if err != nil {
		return nil, err
	}
	out := make([]model.Point, len(means))
	for i, m := range means {
		out[i] = model.Point{Date: series.Bar(i + window - 1).Date, Value: m}
	}
	return out, nil
}

// RollingMean computes the trailing simple moving average of values.
// The result has len(values)-window+1 entries.
func RollingMean(values []float64, window int) ([]float64, error) {
	if window <= 0 {
		return nil, newError("rolling mean", ErrInvalidWindow, "window %d must be positive", window)
	}
	if len(values) < window {
		return nil, newError("rolling mean", ErrInsufficientData, "%d values, window %d", len(values), window)
	}
	out := make([]float64, 0, len(values)-window+1)
	for end := window; end <= len(values); end++ {
		out = append(out, floats.Sum(values[end-window:end])/float64(window))
	}
	return out, nil
}

// VolumeStatsResult summarizes trading activity over the whole series.
type VolumeStatsResult struct {
	AvgDailyVolume float64
	// CoefficientOfVariation is std/mean; NaN when mean volume is zero.
	CoefficientOfVariation float64
	// TrendPerDay is the OLS slope of volume on the trading-day index.
	TrendPerDay float64
}

// VolumeStats returns average volume, its coefficient of variation and linear trend.
func VolumeStats(series *model.AssetSeries) (VolumeStatsResult, error) {
	vols := series.Volumes()
	res := VolumeStatsResult{
		AvgDailyVolume:         math.NaN(),
		CoefficientOfVariation: math.NaN(),
		TrendPerDay:            math.NaN(),
	}
	if len(vols) < 2 {
		return res, newError("volume stats", ErrInsufficientData, "%d bars, need at least 2", len(vols))
	}

	idx := make([]float64, len(vols))
	for i := range idx {
		idx[i] = float64(i)
	}
	_, res.TrendPerDay = stat.LinearRegression(idx, vols, nil, false)

	mean, std := stat.MeanStdDev(vols, nil)
	res.AvgDailyVolume = mean
	if mean == 0 {
		return res, newError("volume stats", ErrDivisionByZero, "mean volume is zero")
	}
	res.CoefficientOfVariation = std / mean
	return res, nil
}
