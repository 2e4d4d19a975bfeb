package recorder

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/assessment"
	"GreenMetrics/internal/calculator"
	"GreenMetrics/internal/model"
)

func openTestDB(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func sampleReport() *analyzer.Report {
	d := func(day int) time.Time { return time.Date(2023, 1, day, 0, 0, 0, 0, time.UTC) }
	span := model.Period{From: d(2), To: d(31)}
	return &analyzer.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Period:      span,
		Source:      "mock",
		Assets:      []model.Asset{{Symbol: "KRBN"}},
		Results: []model.MetricResult{
			{Asset: "KRBN", Metric: analyzer.MetricAmihud, Window: model.WindowWholePeriod, Period: span, Value: 0.42, Status: model.StatusOK},
			{Asset: "KRBN", Metric: analyzer.MetricHurst, Window: model.WindowWholePeriod, Period: span, Value: math.NaN(),
				Status: model.Status(calculator.KindInsufficientData), Note: "3 window sizes dropped"},
			{Asset: "KRBN", Metric: analyzer.MetricRollingVolume, Window: "rolling 2d", Period: span, Value: 15,
				Series: []model.Point{{Date: d(3), Value: 10}, {Date: d(4), Value: math.NaN()}, {Date: d(5), Value: 15}}, Status: model.StatusOK},
		},
	}
}

func TestSQLiteRecorder_RecordRun(t *testing.T) {
	r := openTestDB(t)
	require.NoError(t, r.RecordRun(sampleReport()))

	var assets, from string
	var failed int
	require.NoError(t, r.db.QueryRow(`SELECT assets, period_from, failed_rows FROM runs WHERE id = ?`, "run-1").Scan(&assets, &from, &failed))
	assert.Equal(t, "KRBN", assets)
	assert.Equal(t, "2023-01-02", from)
	assert.Equal(t, 1, failed)

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM metric_results WHERE run_id = ?`, "run-1").Scan(&n))
	assert.Equal(t, 3, n)

	var hurst *float64
	var status string
	require.NoError(t, r.db.QueryRow(`SELECT value, status FROM metric_results WHERE metric = ?`, analyzer.MetricHurst).Scan(&hurst, &status))
	assert.Nil(t, hurst, "NaN is stored as NULL")
	assert.Equal(t, "InsufficientData", status)

	rows, err := r.db.Query(`SELECT p.date, p.value FROM metric_points p
		JOIN metric_results m ON m.id = p.result_id
		WHERE m.metric = ? ORDER BY p.date`, analyzer.MetricRollingVolume)
	require.NoError(t, err)
	defer rows.Close()
	var dates []string
	var values []*float64
	for rows.Next() {
		var d string
		var v *float64
		require.NoError(t, rows.Scan(&d, &v))
		dates = append(dates, d)
		values = append(values, v)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"2023-01-03", "2023-01-04", "2023-01-05"}, dates)
	assert.Nil(t, values[1])
	assert.Equal(t, 15.0, *values[2])
}

func TestSQLiteRecorder_DuplicateRun(t *testing.T) {
	r := openTestDB(t)
	require.NoError(t, r.RecordRun(sampleReport()))
	assert.Error(t, r.RecordRun(sampleReport()))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM metric_results`).Scan(&n))
	assert.Equal(t, 3, n, "failed run is rolled back")
}

func TestSQLiteRecorder_RecordAssessments(t *testing.T) {
	r := openTestDB(t)
	report := sampleReport()
	require.NoError(t, r.RecordRun(report))

	as := assessment.EvaluateAll(report, 0.05)
	require.NoError(t, r.RecordAssessments(report.RunID, as))

	var stage, regime, factors string
	require.NoError(t, r.db.QueryRow(`SELECT stage, regime, factors FROM assessments WHERE run_id = ?`, report.RunID).Scan(&stage, &regime, &factors))
	assert.Equal(t, as[0].Stage.Label, stage)
	assert.Equal(t, "UNDEFINED", regime)
	assert.Contains(t, factors, "Amihud illiquidity")
}

func TestSQLiteRecorder_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	r, err := NewSQLiteRecorder(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.RecordRun(sampleReport()))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()
	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRun(sampleReport()))
	assert.NoError(t, r.RecordAssessments("x", nil))
	assert.NoError(t, r.Close())
}
