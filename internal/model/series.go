package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used across the study.
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Period is an inclusive calendar date range.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.From) && !d.After(p.To)
}

func (p Period) IsZero() bool { return p.From.IsZero() && p.To.IsZero() }

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.From.Format(DateLayout), p.To.Format(DateLayout))
}

// Point is one value of a time-indexed output.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ReturnPoint is one daily return. AfterGap marks returns spanning a flagged gap.
type ReturnPoint struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
	AfterGap bool      `json:"after_gap,omitempty"`
}

// ReturnSeries is an ordered sequence of daily returns for one asset.
type ReturnSeries struct {
	Symbol string
	Points []ReturnPoint
}

func (r ReturnSeries) Len() int { return len(r.Points) }

func (r ReturnSeries) Values() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Value
	}
	return out
}

func (r ReturnSeries) Dates() []time.Time {
	out := make([]time.Time, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Date
	}
	return out
}

// Period returns the first and last return dates. Zero for an empty series.
func (r ReturnSeries) Period() Period {
	if len(r.Points) == 0 {
		return Period{}
	}
	return Period{From: r.Points[0].Date, To: r.Points[len(r.Points)-1].Date}
}
