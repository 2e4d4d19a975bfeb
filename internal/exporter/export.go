package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/assessment"
)

// Export writes the run's CSV files, and the workbook when xlsx is set,
// into dir. It returns the paths written.
func Export(dir string, report *analyzer.Report, assessments []*assessment.Assessment, xlsx bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	prefix := filepath.Join(dir, "greenmetrics_"+report.GeneratedAt.Format("20060102_150405"))

	results, series := prefix+"_results.csv", prefix+"_series.csv"
	if err := WriteCSV(results, report); err != nil {
		return nil, err
	}
	if err := WriteSeriesCSV(series, report); err != nil {
		return nil, err
	}
	paths := []string{results, series}

	if xlsx {
		book := prefix + ".xlsx"
		if err := WriteXLSX(book, report, assessments); err != nil {
			return paths, err
		}
		paths = append(paths, book)
	}
	return paths, nil
}
