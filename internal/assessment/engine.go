package assessment

import (
	"strings"

	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/calculator"
)

// Stage is the market-maturity reading of an asset.
type Stage struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Stages maps a total score to a maturity stage, highest first.
var Stages = []struct {
	MinScore float64
	Stage    Stage
}{
	{0.6, Stage{Label: "Mainstream", Description: "liquid, efficiently priced market"}},
	{0.0, Stage{Label: "Transitioning", Description: "liquidity building, not yet mainstream"}},
}

// DefaultStage is the lowest stage for negative scores.
var DefaultStage = Stage{Label: "Niche", Description: "thin trading and limited participation"}

func mapStage(totalScore float64) Stage {
	for _, s := range Stages {
		if totalScore >= s.MinScore {
			return s.Stage
		}
	}
	return DefaultStage
}

// Assessment is the interpretation of one asset's metrics.
type Assessment struct {
	Asset      string            `json:"asset"`
	Factors    []Factor          `json:"factors"`
	TotalScore float64           `json:"total_score"`
	Stage      Stage             `json:"stage"`
	Regime     calculator.Regime `json:"regime"`
	Volatility []string          `json:"volatility"`
}

// LiquidityStatus joins the liquidity factor commentaries, one per line.
func (a *Assessment) LiquidityStatus() string {
	var lines []string
	for _, f := range a.Factors[:3] {
		lines = append(lines, f.Commentary)
	}
	return strings.Join(lines, "\n")
}

// Evaluate scores the asset's rows in report. band is the Hurst
// random-walk band.
func Evaluate(report *analyzer.Report, asset string, band float64) *Assessment {
	f1 := scoreAmihud(report.Find(asset, analyzer.MetricAmihud))
	f2 := scoreZeroReturns(report.Find(asset, analyzer.MetricZeroReturnFraction))
	f3 := scoreVolumeTrend(report.Find(asset, analyzer.MetricVolumeTrend))
	row, found := report.Find(asset, analyzer.MetricHurst)
	f4, regime := scoreHurst(row, found, band)

	factors := []Factor{f1, f2, f3, f4}
	total := f1.Weighted + f2.Weighted + f3.Weighted + f4.Weighted

	a := &Assessment{
		Asset:      asset,
		Factors:    factors,
		TotalScore: total,
		Stage:      mapStage(total),
		Regime:     regime,
	}

	prefix := analyzer.MetricVolatilityRatio + "_vs_"
	for _, r := range report.ForAsset(asset) {
		if !strings.HasPrefix(r.Metric, prefix) || !r.OK() {
			continue
		}
		a.Volatility = append(a.Volatility, describeVolatilityRatio(asset, strings.TrimPrefix(r.Metric, prefix), r.Value))
	}
	return a
}

// EvaluateAll assesses every asset of the report in order.
func EvaluateAll(report *analyzer.Report, band float64) []*Assessment {
	out := make([]*Assessment, 0, len(report.Assets))
	for _, asset := range report.Assets {
		out = append(out, Evaluate(report, asset.Symbol, band))
	}
	return out
}
