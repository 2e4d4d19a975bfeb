package recorder

import (
	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/assessment"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *analyzer.Report) error                           { return nil }
func (n *NoopRecorder) RecordAssessments(_ string, _ []*assessment.Assessment) error { return nil }
func (n *NoopRecorder) Close() error                                                 { return nil }
