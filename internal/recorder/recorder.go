package recorder

import (
	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/assessment"
)

// Recorder persists study runs for later comparison.
type Recorder interface {
	// RecordRun stores the run header, every result row and series points.
	RecordRun(report *analyzer.Report) error
	RecordAssessments(runID string, assessments []*assessment.Assessment) error
	Close() error
}
