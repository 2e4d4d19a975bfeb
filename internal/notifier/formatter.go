package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/assessment"
	"GreenMetrics/internal/model"
)

func formatMetric(report *analyzer.Report, asset, metric, format string) string {
	r, ok := report.Find(asset, metric)
	switch {
	case !ok:
		return "n/a"
	case !r.OK() || math.IsNaN(r.Value):
		return string(r.Status)
	}
	return fmt.Sprintf(format, r.Value)
}

// FormatStudySummary formats a run and its assessments into a Telegram message.
func FormatStudySummary(report *analyzer.Report, assessments []*assessment.Assessment) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🌱 <b>GreenMetrics</b> | %s\n", report.GeneratedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Period: %s\n", report.Period))
	b.WriteString(fmt.Sprintf("Run: <code>%s</code>\n\n", report.RunID))

	byAsset := make(map[string]*assessment.Assessment, len(assessments))
	for _, a := range assessments {
		byAsset[a.Asset] = a
	}

	for _, asset := range report.Assets {
		sym := asset.Symbol
		b.WriteString(fmt.Sprintf("<b>%s</b>", html.EscapeString(sym)))
		if a := byAsset[sym]; a != nil {
			b.WriteString(fmt.Sprintf(" - %s (%+.2f)", a.Stage.Label, a.TotalScore))
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  Amihud: %s | zero-return: %s\n",
			formatMetric(report, sym, analyzer.MetricAmihud, "%.4f"),
			formatMetric(report, sym, analyzer.MetricZeroReturnFraction, "%.2f")))
		b.WriteString(fmt.Sprintf("  Hurst: %s | vol: %s\n",
			formatMetric(report, sym, analyzer.MetricHurst, "%.3f"),
			formatMetric(report, sym, analyzer.MetricAnnualVolatility, "%.2f")))
		if _, ok := report.Find(sym, analyzer.MetricVolumeGrowth); ok {
			b.WriteString(fmt.Sprintf("  Volume growth: %s\n", formatMetric(report, sym, analyzer.MetricVolumeGrowth, "%+.1f%%")))
		}
		for _, bench := range asset.Benchmarks {
			metric := analyzer.VsBenchmark(analyzer.MetricCorrelation, bench)
			if _, ok := report.Find(sym, metric); ok {
				b.WriteString(fmt.Sprintf("  ρ %s: %s\n", html.EscapeString(bench), formatMetric(report, sym, metric, "%+.2f")))
			}
		}
		if a := byAsset[sym]; a != nil {
			for _, line := range a.Volatility {
				b.WriteString("  " + html.EscapeString(line) + "\n")
			}
		}
		b.WriteString("\n")
	}

	if n := report.Failed(); n > 0 {
		b.WriteString(fmt.Sprintf("⚠️ %d metrics undefined; see exported results.\n", n))
	}
	return b.String()
}

// FormatAssessment formats the factor breakdown of one asset.
func FormatAssessment(a *assessment.Assessment) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b>: %s\n", html.EscapeString(a.Asset), a.Stage.Label))
	for _, f := range a.Factors {
		b.WriteString(fmt.Sprintf("  %s: %+.1f (×%.2f) = %+.3f\n    %s\n",
			f.Name, f.RawScore, f.Weight, f.Weighted, html.EscapeString(f.Commentary)))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Total: %+.3f (%s)\n", a.TotalScore, a.Stage.Description))
	return b.String()
}

// FormatRunError formats a failed study run.
func FormatRunError(period model.Period, err error) string {
	return fmt.Sprintf("❌ <b>GreenMetrics run failed</b> (%s)\n%s", period, html.EscapeString(err.Error()))
}
