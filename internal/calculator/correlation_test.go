package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GreenMetrics/internal/model"
)

func negate(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = -v
	}
	return out
}

func TestStaticCorrelation_Self(t *testing.T) {
	x := gaussian(1, 250, 0.01)
	a, err := Align(returnSeries("ICLN", x), returnSeries("ICLN2", x))
	require.NoError(t, err)

	pairs, err := StaticCorrelation(a)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.NoError(t, pairs[0].Err)
	assert.InDelta(t, 1.0, pairs[0].Value, 1e-9)
	assert.Equal(t, 250, pairs[0].N)
}

func TestCorrelation_AntiCorrelated(t *testing.T) {
	x := gaussian(2, 300, 0.01)
	xs, ys := returnSeries("KRBN", x), returnSeries("SPY", negate(x))

	a, err := Align(xs, ys)
	require.NoError(t, err)
	pairs, err := StaticCorrelation(a)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, pairs[0].Value, 1e-9)

	roll, err := RollingCorrelation(xs, ys, 60)
	require.NoError(t, err)
	require.Len(t, roll.Points, 300-60+1)
	assert.Zero(t, roll.Undefined)
	for _, p := range roll.Points {
		assert.InDelta(t, -1.0, p.Value, 1e-9)
	}
	assert.Equal(t, xs.Points[59].Date, roll.Points[0].Date)
	assert.Equal(t, xs.Points[299].Date, roll.Points[len(roll.Points)-1].Date)
}

func TestRollingCorrelation_NoLookAhead(t *testing.T) {
	x := gaussian(3, 120, 0.01)
	y := gaussian(4, 120, 0.01)
	base, err := RollingCorrelation(returnSeries("A", x), returnSeries("B", y), 30)
	require.NoError(t, err)

	// Changing the last observation must not move any earlier point.
	x2 := append([]float64(nil), x...)
	x2[len(x2)-1] = 0.5
	moved, err := RollingCorrelation(returnSeries("A", x2), returnSeries("B", y), 30)
	require.NoError(t, err)
	for i := 0; i < len(base.Points)-1; i++ {
		assert.Equal(t, base.Points[i].Value, moved.Points[i].Value)
	}
	assert.NotEqual(t, base.Points[len(base.Points)-1].Value, moved.Points[len(moved.Points)-1].Value)
}

func TestRollingCorrelation_ZeroVarianceWindow(t *testing.T) {
	x := append(constant(20, 0), gaussian(5, 40, 0.01)...)
	y := gaussian(6, 60, 0.01)

	roll, err := RollingCorrelation(returnSeries("BGRN", x), returnSeries("AGG", y), 20)
	require.NoError(t, err)
	require.Len(t, roll.Points, 41)
	assert.True(t, math.IsNaN(roll.Points[0].Value))
	assert.Equal(t, 1, roll.Undefined)
	assert.False(t, math.IsNaN(roll.Points[1].Value))
}

func TestRollingCorrelation_Errors(t *testing.T) {
	x := returnSeries("A", gaussian(7, 50, 0.01))
	y := returnSeries("B", gaussian(8, 49, 0.01))

	_, err := RollingCorrelation(x, y, 10)
	assert.ErrorIs(t, err, ErrMisalignedSeries)

	shifted := returnSeries("B", gaussian(8, 50, 0.01))
	shifted.Points[10].Date = shifted.Points[10].Date.AddDate(0, 0, 1)
	_, err = RollingCorrelation(x, shifted, 10)
	assert.ErrorIs(t, err, ErrMisalignedSeries)

	_, err = RollingCorrelation(x, returnSeries("B", gaussian(8, 50, 0.01)), 1)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = RollingCorrelation(x, returnSeries("B", gaussian(8, 50, 0.01)), 51)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAlign_InnerJoin(t *testing.T) {
	a := returnSeries("A", gaussian(9, 10, 0.01))
	b := returnSeries("B", gaussian(10, 12, 0.01))
	b.Points = b.Points[2:]

	al, err := Align(a, b)
	require.NoError(t, err)
	assert.Equal(t, 8, al.Len())
	assert.Equal(t, []string{"A", "B"}, al.Symbols)
	assert.Equal(t, a.Points[2].Date, al.Dates[0])
	assert.Equal(t, a.Points[2].Value, al.Values[0][0])
	assert.Equal(t, b.Points[0].Value, al.Values[1][0])

	rebuilt := al.Series(1)
	assert.Equal(t, "B", rebuilt.Symbol)
	assert.Equal(t, al.Dates, rebuilt.Dates())

	_, err = Align(a)
	assert.ErrorIs(t, err, ErrInsufficientData)

	disjoint := model.ReturnSeries{Symbol: "C", Points: []model.ReturnPoint{{Date: testStart.AddDate(5, 0, 0), Value: 1}}}
	_, err = Align(a, disjoint)
	assert.ErrorIs(t, err, ErrMisalignedSeries)
}

func TestAlign_RepeatedDateCountsOnce(t *testing.T) {
	d := tradingDays(3)
	pts := func(dates ...time.Time) []model.ReturnPoint {
		out := make([]model.ReturnPoint, len(dates))
		for i, dt := range dates {
			out[i] = model.ReturnPoint{Date: dt, Value: float64(i)}
		}
		return out
	}
	a := model.ReturnSeries{Symbol: "A", Points: pts(d[0], d[1], d[1], d[2])}
	b := model.ReturnSeries{Symbol: "B", Points: pts(d[0], d[1], d[2])}
	c := model.ReturnSeries{Symbol: "C", Points: pts(d[0], d[2])}

	al, err := Align(a, b, c)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{d[0], d[2]}, al.Dates)

	al, err = Align(a, b)
	require.NoError(t, err)
	assert.Equal(t, d, al.Dates)
}

func TestKendall(t *testing.T) {
	al := Aligned{
		Symbols: []string{"X", "UP", "DOWN", "TIES"},
		Dates:   tradingDays(5),
		Values: [][]float64{
			{1, 2, 3, 4, 5},
			{2, 4, 6, 8, 10},
			{5, 4, 3, 2, 1},
			{1, 1, 1, 1, 1},
		},
	}
	m, err := Kendall(al)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Values[0][0], 1e-12)
	assert.InDelta(t, 1.0, m.Values[0][1], 1e-12)
	assert.InDelta(t, -1.0, m.Values[0][2], 1e-12)
	assert.Equal(t, m.Values[0][2], m.Values[2][0])
	assert.True(t, math.IsNaN(m.Values[0][3]))

	assert.InDelta(t, 2/math.Sqrt(6), kendallTauB([]float64{1, 2, 3}, []float64{1, 1, 2}), 1e-12)
}
