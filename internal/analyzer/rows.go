package analyzer

import (
	"math"

	"GreenMetrics/internal/calculator"
	"GreenMetrics/internal/model"
)

// rowBuilder accumulates result rows for one asset, turning estimator
// errors into statuses.
type rowBuilder struct {
	asset string
	rows  []model.MetricResult
}

func status(err error) model.Status {
	if err == nil {
		return model.StatusOK
	}
	return model.Status(calculator.KindOf(err))
}

func (b *rowBuilder) scalar(metric, window string, p model.Period, v float64, err error, note string) {
	if err != nil {
		note = joinNote(note, err.Error())
	}
	st := status(err)
	if st == model.StatusOK && math.IsNaN(v) {
		st = model.Status(calculator.KindDivisionByZero)
	}
	b.rows = append(b.rows, model.MetricResult{
		Asset:  b.asset,
		Metric: metric,
		Window: window,
		Period: p,
		Value:  v,
		Status: st,
		Note:   note,
	})
}

func (b *rowBuilder) series(metric, window string, p model.Period, pts []model.Point, err error) {
	b.seriesNote(metric, window, p, pts, err, "")
}

// seriesNote appends a time-indexed row; Value carries the latest point.
func (b *rowBuilder) seriesNote(metric, window string, p model.Period, pts []model.Point, err error, note string) {
	row := model.MetricResult{
		Asset:  b.asset,
		Metric: metric,
		Window: window,
		Period: p,
		Value:  math.NaN(),
		Status: status(err),
		Note:   note,
	}
	if err != nil {
		row.Note = joinNote(note, err.Error())
	} else {
		row.Series = append(make([]model.Point, 0, len(pts)), pts...)
		if len(pts) > 0 {
			row.Value = pts[len(pts)-1].Value
		}
	}
	b.rows = append(b.rows, row)
}

func (b *rowBuilder) failed(metric, window string, p model.Period, err error, note string) {
	b.scalar(metric, window, p, math.NaN(), err, note)
}

func joinNote(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "; " + b
}
