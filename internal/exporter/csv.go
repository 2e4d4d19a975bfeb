package exporter

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/model"
)

var resultHeader = []string{"run_id", "asset", "metric", "window", "period_from", "period_to", "value", "status", "note", "points"}

var seriesHeader = []string{"asset", "metric", "window", "date", "value"}

// formatValue renders undefined values as empty cells.
func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatPeriod(p model.Period) (string, string) {
	if p.IsZero() {
		return "", ""
	}
	return p.From.Format(model.DateLayout), p.To.Format(model.DateLayout)
}

func resultRecord(runID string, r model.MetricResult) []string {
	from, to := formatPeriod(r.Period)
	return []string{runID, r.Asset, r.Metric, r.Window, from, to, formatValue(r.Value), string(r.Status), r.Note, strconv.Itoa(len(r.Series))}
}

// WriteCSV writes one line per result row. Series rows carry their latest
// value; the points go to WriteSeriesCSV.
func WriteCSV(path string, report *analyzer.Report) error {
	records := [][]string{resultHeader}
	for _, r := range report.Results {
		records = append(records, resultRecord(report.RunID, r))
	}
	return writeCSVFile(path, records)
}

// WriteSeriesCSV writes every time-indexed result in long format.
func WriteSeriesCSV(path string, report *analyzer.Report) error {
	records := [][]string{seriesHeader}
	for _, r := range report.Results {
		for _, p := range r.Series {
			records = append(records, []string{r.Asset, r.Metric, r.Window, p.Date.Format(model.DateLayout), formatValue(p.Value)})
		}
	}
	return writeCSVFile(path, records)
}

func writeCSVFile(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
