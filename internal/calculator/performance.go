package calculator

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"GreenMetrics/internal/model"
)

// PerformanceResult holds annualized risk/return statistics of a return series.
type PerformanceResult struct {
	Period           model.Period
	AnnualVolatility float64
	AnnualReturn     float64
	Sharpe           float64
	Skewness         float64
	ExcessKurtosis   float64
	// VaR is the TailProbability quantile of daily returns; CVaR the mean of
	// returns at or below it.
	VaR         float64
	CVaR        float64
	MaxDrawdown float64
}

// Performance computes volatility, return, Sharpe (zero risk-free rate),
// higher moments, tail risk and maximum drawdown of cumulative returns.
// Statistics that need a nonzero standard deviation are NaN for a flat
// series and the error reports DivisionByZero.
func Performance(returns model.ReturnSeries, cfg Config) (PerformanceResult, error) {
	cfg = cfg.WithDefaults()
	res := PerformanceResult{Period: returns.Period()}
	x := returns.Values()
	if len(x) < 2 {
		return res, newError("performance", ErrInsufficientData, "%d returns, need at least 2", len(x))
	}

	days := float64(cfg.TradingDaysPerYear)
	mean, std := stat.MeanStdDev(x, nil)
	res.AnnualReturn = mean * days
	res.AnnualVolatility = std * math.Sqrt(days)

	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	res.VaR = stat.Quantile(cfg.TailProbability, stat.Empirical, sorted, nil)
	var tailSum float64
	var tailN int
	for _, v := range sorted {
		if v > res.VaR {
			break
		}
		tailSum += v
		tailN++
	}
	res.CVaR = tailSum / float64(tailN)
	res.MaxDrawdown = maxDrawdown(x)

	if isConstant(x) {
		res.Sharpe, res.Skewness, res.ExcessKurtosis = math.NaN(), math.NaN(), math.NaN()
		return res, newError("performance", ErrDivisionByZero, "returns have zero standard deviation")
	}
	res.Sharpe = mean / std * math.Sqrt(days)
	res.Skewness = stat.Skew(x, nil)
	res.ExcessKurtosis = stat.ExKurtosis(x, nil)
	return res, nil
}

// maxDrawdown returns the most negative distance of the cumulative return
// sum from its running peak.
func maxDrawdown(returns []float64) float64 {
	var cum, dd float64
	peak := math.Inf(-1)
	for _, r := range returns {
		cum += r
		if cum > peak {
			peak = cum
		}
		if d := cum - peak; d < dd {
			dd = d
		}
	}
	return dd
}
