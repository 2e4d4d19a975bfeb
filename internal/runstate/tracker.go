package runstate

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/assessment"
)

// historyLen is the number of past stages kept per asset.
const historyLen = 12

// Tracker records run outcomes with concurrency safety.
type Tracker struct {
	mu       sync.Mutex
	state    *State
	filePath string
	logger   *zap.Logger
}

// NewTracker creates a Tracker, loading or initializing state from disk.
func NewTracker(filePath string, logger *zap.Logger) (*Tracker, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load run state: %w", err)
	}
	if state.Stages == nil {
		state.Stages = make(map[string]string)
	}
	if state.StageHistory == nil {
		state.StageHistory = make(map[string][]string)
	}

	t := &Tracker{state: state, filePath: filePath, logger: logger.Named("runstate")}
	if err := t.save(); err != nil {
		return nil, err
	}
	return t, nil
}

// GetState returns a copy of the current state.
func (t *Tracker) GetState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := *t.state
	s.ExportPaths = slices.Clone(s.ExportPaths)
	s.Stages = maps.Clone(s.Stages)
	s.StageHistory = make(map[string][]string, len(t.state.StageHistory))
	for k, v := range t.state.StageHistory {
		s.StageHistory[k] = slices.Clone(v)
	}
	return s
}

// RecordSuccess stores the outcome of a completed run.
func (t *Tracker) RecordSuccess(report *analyzer.Report, assessments []*assessment.Assessment, summary string, paths []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Runs++
	t.state.ConsecutiveFailures = 0
	t.state.LastRunID = report.RunID
	t.state.LastRunAt = report.GeneratedAt
	t.state.LastPeriod = report.Period.String()
	t.state.LastSummary = summary
	t.state.LastError = ""
	t.state.ExportPaths = slices.Clone(paths)

	for _, a := range assessments {
		t.state.Stages[a.Asset] = a.Stage.Label
		h := append(t.state.StageHistory[a.Asset], a.Stage.Label)
		if len(h) > historyLen {
			h = h[len(h)-historyLen:]
		}
		t.state.StageHistory[a.Asset] = h
	}
	return t.save()
}

// RecordFailure counts a failed run.
func (t *Tracker) RecordFailure(err error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Runs++
	t.state.ConsecutiveFailures++
	t.state.LastError = err.Error()
	return t.save()
}

// StageChanged reports assets whose latest stage differs from the previous run.
func (t *Tracker) StageChanged() map[string][2]string {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := make(map[string][2]string)
	for asset, h := range t.state.StageHistory {
		if n := len(h); n >= 2 && h[n-1] != h[n-2] {
			changed[asset] = [2]string{h[n-2], h[n-1]}
		}
	}
	return changed
}

func (t *Tracker) save() error {
	if err := SaveState(t.filePath, t.state); err != nil {
		t.logger.Error("save run state", zap.String("path", t.filePath), zap.Error(err))
		return err
	}
	return nil
}
