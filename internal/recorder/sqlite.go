package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/assessment"
	"GreenMetrics/internal/model"
)

// SQLiteRecorder persists study runs to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers query past runs while a new one is written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.Named("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			generated_at INTEGER NOT NULL,
			period_from  TEXT,
			period_to    TEXT,
			source       TEXT,
			assets       TEXT,
			failed_rows  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(generated_at)`,

		`CREATE TABLE IF NOT EXISTS metric_results (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES runs(id),
			asset       TEXT NOT NULL,
			metric      TEXT NOT NULL,
			window_desc TEXT,
			period_from TEXT,
			period_to   TEXT,
			value       REAL,
			status      TEXT NOT NULL,
			note        TEXT,
			points      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run ON metric_results(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_metric ON metric_results(asset, metric)`,

		`CREATE TABLE IF NOT EXISTS metric_points (
			result_id INTEGER NOT NULL REFERENCES metric_results(id),
			date      TEXT NOT NULL,
			value     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_points_result ON metric_points(result_id)`,

		`CREATE TABLE IF NOT EXISTS assessments (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES runs(id),
			asset       TEXT NOT NULL,
			total_score REAL,
			stage       TEXT,
			regime      TEXT,
			factors     TEXT,
			volatility  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_run ON assessments(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps NaN and infinities to SQL NULL.
func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func periodDates(p model.Period) (string, string) {
	if p.IsZero() {
		return "", ""
	}
	return p.From.Format(model.DateLayout), p.To.Format(model.DateLayout)
}

func (r *SQLiteRecorder) RecordRun(report *analyzer.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	symbols := make([]string, len(report.Assets))
	for i, a := range report.Assets {
		symbols[i] = a.Symbol
	}
	from, to := periodDates(report.Period)
	if _, err := tx.Exec(`INSERT INTO runs
		(id, generated_at, period_from, period_to, source, assets, failed_rows)
		VALUES (?,?,?,?,?,?,?)`,
		report.RunID, report.GeneratedAt.Unix(), from, to, report.Source,
		strings.Join(symbols, ","), report.Failed(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	resultStmt, err := tx.Prepare(`INSERT INTO metric_results
		(run_id, asset, metric, window_desc, period_from, period_to, value, status, note, points)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare results: %w", err)
	}
	defer resultStmt.Close()
	pointStmt, err := tx.Prepare(`INSERT INTO metric_points (result_id, date, value) VALUES (?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare points: %w", err)
	}
	defer pointStmt.Close()

	points := 0
	for _, res := range report.Results {
		from, to := periodDates(res.Period)
		out, err := resultStmt.Exec(report.RunID, res.Asset, res.Metric, res.Window, from, to,
			nullable(res.Value), string(res.Status), res.Note, len(res.Series))
		if err != nil {
			return fmt.Errorf("insert %s/%s: %w", res.Asset, res.Metric, err)
		}
		if len(res.Series) == 0 {
			continue
		}
		id, err := out.LastInsertId()
		if err != nil {
			return fmt.Errorf("result id: %w", err)
		}
		for _, p := range res.Series {
			if _, err := pointStmt.Exec(id, p.Date.Format(model.DateLayout), nullable(p.Value)); err != nil {
				return fmt.Errorf("insert point %s/%s: %w", res.Asset, res.Metric, err)
			}
		}
		points += len(res.Series)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("run recorded",
		zap.String("run_id", report.RunID),
		zap.Int("results", len(report.Results)),
		zap.Int("points", points))
	return nil
}

func (r *SQLiteRecorder) RecordAssessments(runID string, assessments []*assessment.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, a := range assessments {
		factors, err := json.Marshal(a.Factors)
		if err != nil {
			return fmt.Errorf("encode factors: %w", err)
		}
		if _, err := tx.Exec(`INSERT INTO assessments
			(run_id, asset, total_score, stage, regime, factors, volatility)
			VALUES (?,?,?,?,?,?,?)`,
			runID, a.Asset, a.TotalScore, a.Stage.Label, string(a.Regime),
			string(factors), strings.Join(a.Volatility, "\n"),
		); err != nil {
			return fmt.Errorf("insert assessment %s: %w", a.Asset, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
