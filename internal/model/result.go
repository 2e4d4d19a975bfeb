package model

import "time"

// Status is OK or the kind of error that left a metric undefined.
type Status string

const StatusOK Status = "OK"

// Window descriptions attached to every result.
const (
	WindowWholePeriod = "whole-period"
)

// MetricResult is one row of the results table: a scalar or time-indexed
// output tagged with the asset and the date range it was computed over.
type MetricResult struct {
	Asset  string  `json:"asset"`
	Metric string  `json:"metric"`
	Window string  `json:"window"`
	Period Period  `json:"period"`
	Value  float64 `json:"value"`
	Series []Point `json:"series,omitempty"`
	Status Status  `json:"status"`
	Note   string  `json:"note,omitempty"`
}

// OK reports whether the metric was computed.
func (r MetricResult) OK() bool { return r.Status == StatusOK }

// IsSeries reports whether the result is time-indexed.
func (r MetricResult) IsSeries() bool { return r.Series != nil }

// Asset describes one instrument under study and the benchmarks it is compared against.
type Asset struct {
	Symbol     string   `yaml:"symbol" json:"symbol" validate:"required"`
	Name       string   `yaml:"name" json:"name"`
	Category   string   `yaml:"category" json:"category"`
	Benchmarks []string `yaml:"benchmarks" json:"benchmarks"`
}

// MarketEvent is a dated market event used for event-impact analysis.
type MarketEvent struct {
	Date time.Time
	Name string
}
