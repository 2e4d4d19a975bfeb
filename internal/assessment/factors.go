package assessment

import (
	"fmt"

	"GreenMetrics/internal/calculator"
	"GreenMetrics/internal/model"
)

// Factor is one scored input of the maturity assessment. Scores run from
// -1 (niche) to +1 (mainstream).
type Factor struct {
	Name       string  `json:"name"`
	RawScore   float64 `json:"raw_score"`
	Weight     float64 `json:"weight"`
	Weighted   float64 `json:"weighted"`
	Commentary string  `json:"commentary"`
}

func factor(name string, score, weight float64, commentary string) Factor {
	return Factor{Name: name, RawScore: score, Weight: weight, Weighted: score * weight, Commentary: commentary}
}

func unavailable(name string, weight float64, row model.MetricResult, found bool) Factor {
	reason := "not computed"
	if found {
		reason = string(row.Status)
	}
	return factor(name, 0, weight, "unavailable: "+reason)
}

// scoreAmihud tiers the scaled Amihud ratio.
// Weight: 0.35
func scoreAmihud(row model.MetricResult, found bool) Factor {
	const name, weight = "Amihud illiquidity", 0.35
	if !found || !row.OK() {
		return unavailable(name, weight, row, found)
	}
	switch v := row.Value; {
	case v > 1:
		return factor(name, -1, weight, fmt.Sprintf("High illiquidity - niche market characteristics (%.4f)", v))
	case v > 0.1:
		return factor(name, 0, weight, fmt.Sprintf("Moderate illiquidity - transitioning market (%.4f)", v))
	default:
		return factor(name, 1, weight, fmt.Sprintf("Low illiquidity - mainstream market characteristics (%.4f)", v))
	}
}

// scoreZeroReturns tiers the percentage of zero-return days.
// Weight: 0.25
func scoreZeroReturns(row model.MetricResult, found bool) Factor {
	const name, weight = "Zero-return days", 0.25
	if !found || !row.OK() {
		return unavailable(name, weight, row, found)
	}
	switch pct := row.Value * 100; {
	case pct > 5:
		return factor(name, -1, weight, fmt.Sprintf("High inactive trading days - limited institutional participation (%.1f%%)", pct))
	case pct > 2:
		return factor(name, 0, weight, fmt.Sprintf("Moderate inactive days - growing but not mainstream (%.1f%%)", pct))
	default:
		return factor(name, 1, weight, fmt.Sprintf("Low inactive days - active institutional market (%.1f%%)", pct))
	}
}

// scoreVolumeTrend scores the sign of the daily volume trend.
// Weight: 0.20
func scoreVolumeTrend(row model.MetricResult, found bool) Factor {
	const name, weight = "Volume trend", 0.20
	if !found || !row.OK() {
		return unavailable(name, weight, row, found)
	}
	if row.Value > 0 {
		return factor(name, 1, weight, fmt.Sprintf("Increasing volume trend - market mainstreaming (%+.0f/day)", row.Value))
	}
	return factor(name, -1, weight, fmt.Sprintf("Decreasing volume trend - market consolidation (%+.0f/day)", row.Value))
}

// scoreHurst rewards random-walk behavior as a sign of price efficiency.
// Weight: 0.20
func scoreHurst(row model.MetricResult, found bool, band float64) (Factor, calculator.Regime) {
	const name, weight = "Hurst regime", 0.20
	if !found || !row.OK() {
		return unavailable(name, weight, row, found), calculator.RegimeUndefined
	}
	regime := calculator.ClassifyHurst(row.Value, band)
	commentary := fmt.Sprintf("H=%.3f, %s", row.Value, regime.Description())
	switch regime {
	case calculator.RegimeRandomWalk:
		return factor(name, 1, weight, commentary), regime
	case calculator.RegimeTrending, calculator.RegimeMeanReverting:
		return factor(name, -0.5, weight, commentary), regime
	default:
		return factor(name, 0, weight, commentary), regime
	}
}

// describeVolatilityRatio tiers an asset/benchmark volatility ratio.
func describeVolatilityRatio(asset, benchmark string, ratio float64) string {
	var risk string
	switch {
	case ratio < 0.3:
		risk = "extremely low risk"
	case ratio < 0.7:
		risk = "low risk"
	case ratio < 1.2:
		risk = "moderate risk"
	default:
		risk = "high risk"
	}
	return fmt.Sprintf("%s is %.2fx %s volatility - %s", asset, ratio, benchmark, risk)
}
