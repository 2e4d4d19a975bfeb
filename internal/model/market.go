package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// PriceBar represents a single trading day for one asset.
type PriceBar struct {
	Date     time.Time `json:"date" validate:"required"`
	Open     float64   `json:"open" validate:"gte=0"`
	High     float64   `json:"high" validate:"gte=0,gtefield=Low"`
	Low      float64   `json:"low" validate:"gte=0"`
	Close    float64   `json:"close" validate:"gt=0"`
	AdjClose float64   `json:"adj_close" validate:"gt=0"`
	Volume   float64   `json:"volume" validate:"gte=0"`
}

// DollarVolume returns close price times share volume.
func (b PriceBar) DollarVolume() float64 {
	return b.Close * b.Volume
}

// Gap flags weekdays with no bar between two consecutive observations.
type Gap struct {
	After           time.Time `json:"after"`
	Before          time.Time `json:"before"`
	MissingWeekdays int       `json:"missing_weekdays"`
}

var (
	ErrEmptySeries     = errors.New("series has no bars")
	ErrInvalidBar      = errors.New("invalid price bar")
	ErrUnorderedSeries = errors.New("bar dates must be unique and strictly increasing")
)

// AssetSeries is an immutable, validated daily bar series for one ticker.
type AssetSeries struct {
	symbol string
	bars   []PriceBar
	gaps   []Gap
}

// NewAssetSeries validates bars and builds an AssetSeries. Bar dates are
// normalized to calendar days; the input slice is copied.
func NewAssetSeries(symbol string, bars []PriceBar) (*AssetSeries, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidBar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrEmptySeries)
	}

	own := make([]PriceBar, len(bars))
	for i, b := range bars {
		if err := validate.Struct(b); err != nil {
			return nil, fmt.Errorf("%s: bar %d (%s): %w: %v", symbol, i, b.Date.Format(DateLayout), ErrInvalidBar, err)
		}
		b.Date = DateOf(b.Date)
		if i > 0 && !b.Date.After(own[i-1].Date) {
			return nil, fmt.Errorf("%s: bar %d (%s): %w", symbol, i, b.Date.Format(DateLayout), ErrUnorderedSeries)
		}
		own[i] = b
	}

	return &AssetSeries{symbol: symbol, bars: own, gaps: findGaps(own)}, nil
}

func findGaps(bars []PriceBar) []Gap {
	var gaps []Gap
	for i := 1; i < len(bars); i++ {
		if n := weekdaysBetween(bars[i-1].Date, bars[i].Date); n > 0 {
			gaps = append(gaps, Gap{After: bars[i-1].Date, Before: bars[i].Date, MissingWeekdays: n})
		}
	}
	return gaps
}

// weekdaysBetween counts Mon-Fri days strictly between a and b.
func weekdaysBetween(a, b time.Time) int {
	n := 0
	for d := a.AddDate(0, 0, 1); d.Before(b); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

func (s *AssetSeries) Symbol() string { return s.symbol }

func (s *AssetSeries) Len() int { return len(s.bars) }

// Bar returns the i-th bar.
func (s *AssetSeries) Bar(i int) PriceBar { return s.bars[i] }

// Bars returns a copy of the bars.
func (s *AssetSeries) Bars() []PriceBar {
	out := make([]PriceBar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Gaps returns a copy of the flagged no-trade gaps.
func (s *AssetSeries) Gaps() []Gap {
	out := make([]Gap, len(s.gaps))
	copy(out, s.gaps)
	return out
}

// Period returns the first and last bar dates.
func (s *AssetSeries) Period() Period {
	return Period{From: s.bars[0].Date, To: s.bars[len(s.bars)-1].Date}
}

// Closes returns the raw close prices.
func (s *AssetSeries) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the share volumes.
func (s *AssetSeries) Volumes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Volume
	}
	return out
}

// Returns derives simple returns from consecutive adjusted closes.
func (s *AssetSeries) Returns() ReturnSeries {
	rs := ReturnSeries{Symbol: s.symbol}
	if len(s.bars) < 2 {
		return rs
	}
	gapBefore := make(map[time.Time]bool, len(s.gaps))
	for _, g := range s.gaps {
		gapBefore[g.Before] = true
	}
	rs.Points = make([]ReturnPoint, 0, len(s.bars)-1)
	for i := 1; i < len(s.bars); i++ {
		prev, cur := s.bars[i-1], s.bars[i]
		rs.Points = append(rs.Points, ReturnPoint{
			Date:     cur.Date,
			Value:    cur.AdjClose/prev.AdjClose - 1,
			AfterGap: gapBefore[cur.Date],
		})
	}
	return rs
}

// Slice returns a new series holding only the bars inside p.
func (s *AssetSeries) Slice(p Period) (*AssetSeries, error) {
	var bars []PriceBar
	for _, b := range s.bars {
		if p.Contains(b.Date) {
			bars = append(bars, b)
		}
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: no bars in %s: %w", s.symbol, p, ErrEmptySeries)
	}
	return &AssetSeries{symbol: s.symbol, bars: bars, gaps: findGaps(bars)}, nil
}
