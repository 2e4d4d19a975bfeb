package exporter

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"GreenMetrics/internal/analyzer"
	"GreenMetrics/internal/assessment"
	"GreenMetrics/internal/model"
)

const (
	SheetSummary    = "Summary"
	SheetSeries     = "Series"
	SheetAssessment = "Assessment"
)

// cellValue leaves undefined values blank.
func cellValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// WriteXLSX writes a workbook with the scalar results, all series points
// and the per-asset assessment.
func WriteXLSX(path string, report *analyzer.Report, assessments []*assessment.Assessment) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	w := &sheetWriter{f: f, sheet: SheetSummary, style: bold}
	w.header("asset", "metric", "window", "period_from", "period_to", "value", "status", "note")
	for _, r := range report.Scalars() {
		from, to := formatPeriod(r.Period)
		w.row(r.Asset, r.Metric, r.Window, from, to, cellValue(r.Value), string(r.Status), r.Note)
	}

	if _, err := f.NewSheet(SheetSeries); err != nil {
		return err
	}
	w = &sheetWriter{f: f, sheet: SheetSeries, style: bold, err: w.err}
	w.header("asset", "metric", "window", "date", "value")
	for _, r := range report.Results {
		for _, p := range r.Series {
			w.row(r.Asset, r.Metric, r.Window, p.Date.Format(model.DateLayout), cellValue(p.Value))
		}
	}

	if _, err := f.NewSheet(SheetAssessment); err != nil {
		return err
	}
	w = &sheetWriter{f: f, sheet: SheetAssessment, style: bold, err: w.err}
	w.header("asset", "stage", "total_score", "regime", "liquidity", "volatility")
	for _, a := range assessments {
		w.row(a.Asset, a.Stage.Label, a.TotalScore, string(a.Regime), a.LiquidityStatus(), strings.Join(a.Volatility, "\n"))
	}
	if w.err != nil {
		return fmt.Errorf("write sheet %s: %w", w.sheet, w.err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// sheetWriter appends rows to one sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	style int
	next  int
	err   error
}

func (w *sheetWriter) header(cols ...any) {
	w.row(cols...)
	if w.err != nil {
		return
	}
	end, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, "A1", end, w.style)
}

func (w *sheetWriter) row(cols ...any) {
	if w.err != nil {
		return
	}
	w.next++
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &cols)
}
