package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/assessment"
	"GreenMetrics/internal/collector"
	"GreenMetrics/internal/exporter"
	"GreenMetrics/internal/model"
	"GreenMetrics/internal/notifier"
	"GreenMetrics/internal/recorder"
	"GreenMetrics/internal/runstate"
)

// ErrRunInProgress is returned when a study is requested while one is running.
var ErrRunInProgress = errors.New("study run already in progress")

// Notifier delivers messages to the operator.
type Notifier interface {
	Enabled() bool
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Study is what a run collects and analyzes.
type Study struct {
	Assets []model.Asset
	// Symbols lists assets and benchmarks to fetch.
	Symbols   []string
	Span      model.Period
	HurstBand float64
	OutputDir string
	XLSX      bool
}

// Scheduler runs the study on a cron schedule and on command.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Analyzer  *analyzer.Analyzer
	Recorder  recorder.Recorder
	Notifier  Notifier
	Tracker   *runstate.Tracker
	Ctx       context.Context

	study   Study
	running sync.Mutex

	mu   sync.Mutex
	last []*assessment.Assessment

	logger *zap.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, study Study, col *collector.Collector, an *analyzer.Analyzer,
	rec recorder.Recorder, n Notifier, tr *runstate.Tracker, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Analyzer:  an,
		Recorder:  rec,
		Notifier:  n,
		Tracker:   tr,
		Ctx:       ctx,
		study:     study,
		logger:    logger.Named("scheduler"),
	}
}

// Register adds the periodic study run.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.scheduledRun); err != nil {
		return fmt.Errorf("register study task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) scheduledRun() {
	if _, _, err := s.RunStudy(s.Ctx); err != nil {
		s.logger.Error("scheduled run", zap.Error(err))
	}
}

// RunStudy collects data, computes every metric, assesses each asset, then
// records, exports and announces the results. Recording, export and
// notification failures are logged and do not fail the run.
func (s *Scheduler) RunStudy(ctx context.Context) (*analyzer.Report, []*assessment.Assessment, error) {
	if !s.running.TryLock() {
		return nil, nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	s.logger.Info("running study",
		zap.Stringer("period", s.study.Span), zap.Int("assets", len(s.study.Assets)), zap.Int("symbols", len(s.study.Symbols)))

	ds, err := s.Collector.Collect(ctx, s.study.Symbols, s.study.Span)
	if err != nil {
		return nil, nil, s.fail(ctx, fmt.Errorf("collect: %w", err))
	}
	report, err := s.Analyzer.Run(ctx, s.study.Assets, ds)
	if err != nil {
		return nil, nil, s.fail(ctx, err)
	}
	report.Source = s.Collector.Fetcher.Name()
	assessments := assessment.EvaluateAll(report, s.study.HurstBand)

	if err := s.Recorder.RecordRun(report); err != nil {
		s.logger.Error("record run", zap.String("run_id", report.RunID), zap.Error(err))
	} else if err := s.Recorder.RecordAssessments(report.RunID, assessments); err != nil {
		s.logger.Error("record assessments", zap.String("run_id", report.RunID), zap.Error(err))
	}

	paths, err := exporter.Export(s.study.OutputDir, report, assessments, s.study.XLSX)
	if err != nil {
		s.logger.Error("export results", zap.String("dir", s.study.OutputDir), zap.Error(err))
	}
	for _, p := range paths {
		s.logger.Info("exported", zap.String("path", p))
	}

	summary := notifier.FormatStudySummary(report, assessments)
	if s.Tracker != nil {
		if err := s.Tracker.RecordSuccess(report, assessments, summary, paths); err != nil {
			s.logger.Error("update run state", zap.Error(err))
		}
		summary += formatStageChanges(s.Tracker.StageChanged())
	}

	s.mu.Lock()
	s.last = assessments
	s.mu.Unlock()

	s.trySend(ctx, summary)
	s.logger.Info("study complete",
		zap.String("run_id", report.RunID), zap.Int("results", len(report.Results)), zap.Int("failed", report.Failed()))
	return report, assessments, nil
}

func (s *Scheduler) fail(ctx context.Context, err error) error {
	if s.Tracker != nil {
		if serr := s.Tracker.RecordFailure(err); serr != nil {
			s.logger.Error("update run state", zap.Error(serr))
		}
	}
	if ctx.Err() == nil {
		s.trySend(ctx, notifier.FormatRunError(s.study.Span, err))
	}
	return err
}

func formatStageChanges(changed map[string][2]string) string {
	if len(changed) == 0 {
		return ""
	}
	assets := make([]string, 0, len(changed))
	for a := range changed {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	var b strings.Builder
	b.WriteString("🔔 Stage changes:\n")
	for _, a := range assets {
		b.WriteString(fmt.Sprintf("  %s: %s → %s\n", a, changed[a][0], changed[a][1]))
	}
	return b.String()
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/run":
		// Results and failures are announced by RunStudy itself.
		if _, _, err := s.RunStudy(ctx); errors.Is(err, ErrRunInProgress) {
			return "⏳ A study run is already in progress."
		}
		return ""
	case "/summary":
		if s.Tracker == nil {
			return "No run state available."
		}
		if st := s.Tracker.GetState(); st.LastSummary != "" {
			return st.LastSummary
		}
		return "No completed run yet. Send /run to start one."
	case "/status":
		if s.Tracker == nil {
			return "No run state available."
		}
		st := s.Tracker.GetState()
		return formatStatus(&st)
	case "/assess":
		if len(fields) < 2 {
			return "Usage: /assess SYMBOL"
		}
		return s.assess(strings.ToUpper(fields[1]))
	default:
		return helpText
	}
}

const helpText = "Available commands:\n• /run - run the study now\n• /summary - last study summary\n" +
	"• /status - run history\n• /assess SYMBOL - factor breakdown"

func (s *Scheduler) assess(symbol string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return "No assessments in this session yet. Send /run first."
	}
	for _, a := range s.last {
		if a.Asset == symbol {
			return notifier.FormatAssessment(a)
		}
	}
	return fmt.Sprintf("%s is not a studied asset.", symbol)
}

func formatStatus(st *runstate.State) string {
	var b strings.Builder
	b.WriteString("📋 <b>Run status</b>\n")
	b.WriteString(fmt.Sprintf("Runs: %d | consecutive failures: %d\n", st.Runs, st.ConsecutiveFailures))
	if st.LastRunID != "" {
		b.WriteString(fmt.Sprintf("Last run: %s (%s)\nPeriod: %s\n",
			st.LastRunAt.Format("2006-01-02 15:04"), st.LastRunID, st.LastPeriod))
	}
	if st.LastError != "" {
		b.WriteString(fmt.Sprintf("Last error: %s\n", html.EscapeString(st.LastError)))
	}
	assets := make([]string, 0, len(st.Stages))
	for a := range st.Stages {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	for _, a := range assets {
		b.WriteString(fmt.Sprintf("  %s: %s (%d runs tracked)\n", a, st.Stages[a], len(st.StageHistory[a])))
	}
	return b.String()
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.logger.Error("send notification", zap.Error(err))
	}
}
