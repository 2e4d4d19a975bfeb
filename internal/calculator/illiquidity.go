package calculator

import (
	"math"
	"time"

	"GreenMetrics/internal/model"
)

// IlliquidityResult holds the Amihud (2002) ratio and zero-return statistics
// over the whole series passed in.
type IlliquidityResult struct {
	Period model.Period
	// Daily holds |r_t| / (close_t * volume_t), unscaled, for days with volume.
	Daily              []model.Point
	Score              float64
	Returns            int
	ValidDays          int
	MissingVolumeDays  []time.Time
	ZeroReturnDays     int
	ZeroReturnFraction float64
}

// Illiquidity computes the daily Amihud values, their scaled mean and the
// zero-return-day fraction. Days with zero dollar volume are excluded from
// the mean and listed in MissingVolumeDays. The partially filled result is
// returned together with any error.
func Illiquidity(series *model.AssetSeries, cfg Config) (IlliquidityResult, error) {
	cfg = cfg.WithDefaults()
	eps := cfg.ZeroReturnEpsilon()
	returns := series.Returns()
	res := IlliquidityResult{
		Period:             returns.Period(),
		Returns:            returns.Len(),
		Score:              math.NaN(),
		ZeroReturnFraction: math.NaN(),
	}
	for _, r := range returns.Points {
		if math.Abs(r.Value) <= eps {
			res.ZeroReturnDays++
		}
	}
	if res.Returns > 0 {
		res.ZeroReturnFraction = float64(res.ZeroReturnDays) / float64(res.Returns)
	}
	if res.Returns < 2 {
		return res, newError("illiquidity", ErrInsufficientData, "%d returns, need at least 2", res.Returns)
	}

	var sum float64
	for i, r := range returns.Points {
		// Bar i+1 is the day the return r was realized.
		dv := series.Bar(i + 1).DollarVolume()
		if dv == 0 {
			res.MissingVolumeDays = append(res.MissingVolumeDays, r.Date)
			continue
		}
		v := math.Abs(r.Value) / dv
		res.Daily = append(res.Daily, model.Point{Date: r.Date, Value: v})
		sum += v
	}
	res.ValidDays = len(res.Daily)

	if res.ValidDays < 2 {
		return res, newError("illiquidity", ErrInsufficientData,
			"%d days with nonzero dollar volume, %d missing-volume days", res.ValidDays, len(res.MissingVolumeDays))
	}
	res.Score = sum / float64(res.ValidDays) * cfg.AmihudScale
	return res, nil
}

// FractionErr reports InsufficientData when the zero-return fraction rests
// on fewer than 2 returns.
func (r IlliquidityResult) FractionErr() error {
	if r.Returns < 2 {
		return newError("zero-return fraction", ErrInsufficientData, "%d returns, need at least 2", r.Returns)
	}
	return nil
}

// MissingVolumeErr reports the days excluded for zero dollar volume, or nil.
func (r IlliquidityResult) MissingVolumeErr() error {
	if len(r.MissingVolumeDays) == 0 {
		return nil
	}
	return newError("illiquidity", ErrMissingVolumeDay,
		"%d of %d return days have zero dollar volume", len(r.MissingVolumeDays), r.Returns)
}
