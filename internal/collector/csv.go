package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"GreenMetrics/internal/model"
)

// CSVFetcher reads <Dir>/<SYMBOL>.csv files in the column layout written by
// common finance downloaders: Date, Open, High, Low, Close, Adj Close, Volume.
// Only Date, Close and Volume are required.
type CSVFetcher struct {
	Dir string
}

func NewCSVFetcher(dir string) *CSVFetcher {
	return &CSVFetcher{Dir: dir}
}

func (f *CSVFetcher) Name() string { return "csv" }

var errMissingColumn = errors.New("missing required column")

func (f *CSVFetcher) FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(f.Dir, symbol+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	bars, err := readBars(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	span := model.Period{From: model.DateOf(from), To: model.DateOf(to)}
	out := bars[:0]
	for _, b := range bars {
		if span.Contains(b.Date) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func readBars(r io.Reader) ([]model.PriceBar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"date", "close", "volume"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w %q", errMissingColumn, name)
		}
	}

	var bars []model.PriceBar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		field := func(name string) (float64, bool) {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return 0, false
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			return v, err == nil
		}

		date, err := parseCSVDate(rec[col["date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c, ok := field("close")
		if !ok {
			// Empty or "null" rows mark non-trading days.
			continue
		}
		b := model.PriceBar{Date: date, Open: c, High: c, Low: c, Close: c, AdjClose: c}
		if v, ok := field("adj close"); ok {
			b.AdjClose = v
		}
		if v, ok := field("open"); ok {
			b.Open = v
		}
		if v, ok := field("high"); ok {
			b.High = v
		}
		if v, ok := field("low"); ok {
			b.Low = v
		}
		b.Volume, _ = field("volume")
		bars = append(bars, b)
	}
	return bars, nil
}

// parseCSVDate accepts a plain date or a timestamp whose first ten
// characters are the date.
func parseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(model.DateLayout) {
		s = s[:len(model.DateLayout)]
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}
