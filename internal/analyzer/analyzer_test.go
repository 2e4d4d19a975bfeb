package analyzer

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"GreenMetrics/internal/calculator"
	"GreenMetrics/internal/collector"
	"GreenMetrics/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var studySpan = model.Period{From: day(2020, 1, 6), To: day(2022, 12, 30)}

func flatBars(from, to time.Time, price float64) []model.PriceBar {
	var bars []model.PriceBar
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		bars = append(bars, model.PriceBar{Date: d, Open: price, High: price, Low: price, Close: price, AdjClose: price, Volume: 500})
	}
	return bars
}

func collect(t *testing.T, m *collector.MockFetcher, symbols ...string) *collector.Dataset {
	t.Helper()
	ds, err := collector.NewCollector(m, zap.NewNop()).Collect(context.Background(), symbols, studySpan)
	require.NoError(t, err)
	return ds
}

func testOptions() Options {
	return Options{
		Volume: &VolumeWindows{
			Early: model.Period{From: day(2020, 1, 6), To: day(2020, 12, 31)},
			Late:  model.Period{From: day(2022, 1, 3), To: day(2022, 12, 30)},
		},
		Events: []model.MarketEvent{
			{Date: day(2020, 3, 12), Name: "COVID-19"},
			{Date: day(2025, 1, 1), Name: "Outside"},
		},
		Concurrency: 2,
	}
}

func TestAnalyzer_Run(t *testing.T) {
	ds := collect(t, &collector.MockFetcher{Seed: 11}, "KRBN", "ICLN", "SPY", "AGG")
	assets := []model.Asset{
		{Symbol: "KRBN", Benchmarks: []string{"SPY", "AGG", "GLD"}},
		{Symbol: "ICLN", Benchmarks: []string{"SPY"}},
	}

	report, err := New(testOptions(), zap.NewNop()).Run(context.Background(), assets, ds)
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, studySpan, report.Period)

	amihud, ok := report.Find("KRBN", MetricAmihud)
	require.True(t, ok)
	assert.True(t, amihud.OK())
	assert.Equal(t, model.WindowWholePeriod, amihud.Window)
	assert.Greater(t, amihud.Value, 0.0)

	corr, ok := report.Find("KRBN", VsBenchmark(MetricCorrelation, "SPY"))
	require.True(t, ok)
	assert.True(t, corr.OK())
	assert.InDelta(t, 0, corr.Value, 0.2)

	roll, ok := report.Find("KRBN", VsBenchmark(MetricRollingCorrelation, "AGG"))
	require.True(t, ok)
	require.True(t, roll.IsSeries())
	assert.Equal(t, "rolling 252d", roll.Window)
	days := len(ds.Get("KRBN").Returns().Points)
	assert.Len(t, roll.Series, days-252+1)

	_, ok = report.Find("KRBN", VsBenchmark(MetricCorrelation, "GLD"))
	assert.False(t, ok, "uncollected benchmark is skipped")

	growth, ok := report.Find("ICLN", MetricVolumeGrowth)
	require.True(t, ok)
	assert.True(t, growth.OK())
	assert.Contains(t, growth.Window, "early 2020-01-06..2020-12-31")

	hurst, ok := report.Find("ICLN", MetricHurst)
	require.True(t, ok)
	assert.True(t, hurst.OK())
	assert.InDelta(t, 0.5, hurst.Value, 0.2)

	var events []model.MetricResult
	for _, r := range report.ForAsset("KRBN") {
		if r.Metric == MetricEventImpact {
			events = append(events, r)
		}
	}
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Note, "COVID-19")

	for _, r := range report.Results {
		if r.OK() && !r.IsSeries() {
			assert.False(t, math.IsNaN(r.Value), "%s/%s", r.Asset, r.Metric)
		}
	}
}

func TestAnalyzer_Deterministic(t *testing.T) {
	ds := collect(t, &collector.MockFetcher{Seed: 5}, "BGRN", "AGG", "TLT")
	assets := []model.Asset{{Symbol: "BGRN", Benchmarks: []string{"AGG", "TLT"}}}

	a := New(testOptions(), zap.NewNop())
	r1, err := a.Run(context.Background(), assets, ds)
	require.NoError(t, err)
	r2, err := a.Run(context.Background(), assets, ds)
	require.NoError(t, err)

	assert.NotEqual(t, r1.RunID, r2.RunID)
	require.Equal(t, len(r1.Results), len(r2.Results))
	for i := range r1.Results {
		x, y := r1.Results[i], r2.Results[i]
		assert.Equal(t, x.Metric, y.Metric)
		assert.Equal(t, math.Float64bits(x.Value), math.Float64bits(y.Value), x.Metric)
	}
}

func TestAnalyzer_DegenerateInputs(t *testing.T) {
	m := &collector.MockFetcher{
		Seed: 2,
		Bars: map[string][]model.PriceBar{"FLAT": flatBars(studySpan.From, studySpan.To, 25)},
	}
	ds := collect(t, m, "FLAT", "SPY")
	assets := []model.Asset{
		{Symbol: "FLAT", Benchmarks: []string{"SPY"}},
		{Symbol: "GONE"},
	}

	report, err := New(Options{}, zap.NewNop()).Run(context.Background(), assets, ds)
	require.NoError(t, err)

	zr, _ := report.Find("FLAT", MetricZeroReturnFraction)
	assert.Equal(t, 1.0, zr.Value)
	amihud, _ := report.Find("FLAT", MetricAmihud)
	assert.Equal(t, 0.0, amihud.Value)

	hurst, _ := report.Find("FLAT", MetricHurst)
	assert.Equal(t, model.Status(calculator.KindInsufficientData), hurst.Status)
	assert.True(t, math.IsNaN(hurst.Value))

	sharpe, _ := report.Find("FLAT", MetricSharpe)
	assert.Equal(t, model.Status(calculator.KindDivisionByZero), sharpe.Status)
	vol, _ := report.Find("FLAT", MetricAnnualVolatility)
	assert.True(t, vol.OK())

	corr, _ := report.Find("FLAT", VsBenchmark(MetricCorrelation, "SPY"))
	assert.Equal(t, model.Status(calculator.KindDivisionByZero), corr.Status)
	roll, _ := report.Find("FLAT", VsBenchmark(MetricRollingCorrelation, "SPY"))
	assert.True(t, roll.OK())
	assert.Contains(t, roll.Note, "undefined windows")

	_, ok := report.Find("FLAT", MetricVolumeGrowth)
	assert.False(t, ok, "no volume windows configured")

	gone := report.ForAsset("GONE")
	require.Len(t, gone, 1)
	assert.Equal(t, MetricSeries, gone[0].Metric)
	assert.Equal(t, model.Status(calculator.KindInsufficientData), gone[0].Status)
	assert.Greater(t, report.Failed(), 0)
}

func TestAnalyzer_ShortSeriesFraction(t *testing.T) {
	m := &collector.MockFetcher{
		Bars: map[string][]model.PriceBar{"TWO": flatBars(day(2020, 1, 6), day(2020, 1, 7), 40)},
	}
	ds := collect(t, m, "TWO")

	report, err := New(Options{}, zap.NewNop()).Run(context.Background(), []model.Asset{{Symbol: "TWO"}}, ds)
	require.NoError(t, err)

	zr, ok := report.Find("TWO", MetricZeroReturnFraction)
	require.True(t, ok)
	assert.Equal(t, model.Status(calculator.KindInsufficientData), zr.Status)
	assert.Equal(t, 1.0, zr.Value)
	assert.Contains(t, zr.Note, "1 of 1 returns")
}

func TestAnalyzer_MissingVolumeDays(t *testing.T) {
	bars := flatBars(day(2020, 1, 6), day(2020, 3, 30), 0)
	for i := range bars {
		c := 30 + float64(i%7)
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close, bars[i].AdjClose = c, c, c, c, c
		if i%5 == 0 {
			bars[i].Volume = 0
		}
	}
	ds := collect(t, &collector.MockFetcher{Bars: map[string][]model.PriceBar{"THIN": bars}}, "THIN")

	report, err := New(Options{}, zap.NewNop()).Run(context.Background(), []model.Asset{{Symbol: "THIN"}}, ds)
	require.NoError(t, err)

	missing, ok := report.Find("THIN", MetricMissingVolumeDays)
	require.True(t, ok)
	assert.Equal(t, model.Status(calculator.KindMissingVolumeDay), missing.Status)
	assert.Equal(t, 12.0, missing.Value)

	amihud, _ := report.Find("THIN", MetricAmihud)
	assert.True(t, amihud.OK())
	zr, _ := report.Find("THIN", MetricZeroReturnFraction)
	assert.True(t, zr.OK())
}

func TestAnalyzer_Canceled(t *testing.T) {
	ds := collect(t, &collector.MockFetcher{Seed: 1}, "KRBN")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}, zap.NewNop()).Run(ctx, []model.Asset{{Symbol: "KRBN"}}, ds)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatDates(t *testing.T) {
	dates := []time.Time{day(2021, 1, 4), day(2021, 1, 5), day(2021, 1, 6)}
	assert.Equal(t, "2021-01-04, 2021-01-05, +1 more", formatDates(dates, 2))
	assert.Equal(t, "", formatDates(nil, 2))
}
