package calculator

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"GreenMetrics/internal/model"
)

// Aligned holds return series restricted to the dates present in all of them.
type Aligned struct {
	Symbols []string
	Dates   []time.Time
	// Values[i] is the return column of Symbols[i].
	Values [][]float64
}

func (a Aligned) Len() int { return len(a.Dates) }

// Series rebuilds the i-th column as a ReturnSeries on the common index.
func (a Aligned) Series(i int) model.ReturnSeries {
	rs := model.ReturnSeries{Symbol: a.Symbols[i], Points: make([]model.ReturnPoint, len(a.Dates))}
	for k, d := range a.Dates {
		rs.Points[k] = model.ReturnPoint{Date: d, Value: a.Values[i][k]}
	}
	return rs
}

// Align inner-joins return series on their dates.
func Align(series ...model.ReturnSeries) (Aligned, error) {
	if len(series) < 2 {
		return Aligned{}, newError("align", ErrInsufficientData, "%d series, need at least 2", len(series))
	}

	// present counts the series holding each date; repeats within one series count once.
	present := make(map[time.Time]int)
	for _, s := range series {
		own := make(map[time.Time]bool, len(s.Points))
		for _, p := range s.Points {
			if !own[p.Date] {
				own[p.Date] = true
				present[p.Date]++
			}
		}
	}

	a := Aligned{Symbols: make([]string, len(series)), Values: make([][]float64, len(series))}
	added := make(map[time.Time]bool)
	for _, p := range series[0].Points {
		if present[p.Date] == len(series) && !added[p.Date] {
			added[p.Date] = true
			a.Dates = append(a.Dates, p.Date)
		}
	}
	if len(a.Dates) == 0 {
		return Aligned{}, newError("align", ErrMisalignedSeries, "no common dates across %d series", len(series))
	}

	for i, s := range series {
		a.Symbols[i] = s.Symbol
		byDate := make(map[time.Time]float64, len(s.Points))
		for _, p := range s.Points {
			byDate[p.Date] = p.Value
		}
		col := make([]float64, len(a.Dates))
		for k, d := range a.Dates {
			col[k] = byDate[d]
		}
		a.Values[i] = col
	}
	return a, nil
}

// PairCorrelation is the coefficient between two aligned columns. Err is set
// and Value is NaN when the coefficient is undefined.
type PairCorrelation struct {
	A     string
	B     string
	N     int
	Value float64
	Err   error
}

// StaticCorrelation computes the Pearson coefficient for every pair over the
// full aligned range.
func StaticCorrelation(a Aligned) ([]PairCorrelation, error) {
	if a.Len() < 2 {
		return nil, newError("static correlation", ErrInsufficientData, "aligned length %d, need at least 2", a.Len())
	}
	var out []PairCorrelation
	for i := 0; i < len(a.Symbols); i++ {
		for j := i + 1; j < len(a.Symbols); j++ {
			v, err := pearson(a.Values[i], a.Values[j])
			out = append(out, PairCorrelation{A: a.Symbols[i], B: a.Symbols[j], N: a.Len(), Value: v, Err: err})
		}
	}
	return out, nil
}

// RollingResult is a time-indexed correlation. Undefined windows carry NaN.
type RollingResult struct {
	Window    int
	Points    []model.Point
	Undefined int
}

// RollingCorrelation slides a window of fixed size with stride 1 over two
// series sharing an identical date index. The point at t uses only [t-W+1, t];
// the first W-1 days produce no output.
func RollingCorrelation(x, y model.ReturnSeries, window int) (RollingResult, error) {
	res := RollingResult{Window: window}
	if window < 2 {
		return res, newError("rolling correlation", ErrInvalidWindow, "window %d, need at least 2", window)
	}
	if x.Len() != y.Len() {
		return res, newError("rolling correlation", ErrMisalignedSeries, "%s has %d points, %s has %d", x.Symbol, x.Len(), y.Symbol, y.Len())
	}
	for i := range x.Points {
		if !x.Points[i].Date.Equal(y.Points[i].Date) {
			return res, newError("rolling correlation", ErrMisalignedSeries, "dates differ at index %d", i)
		}
	}
	if x.Len() < window {
		return res, newError("rolling correlation", ErrInsufficientData, "%d points, window %d", x.Len(), window)
	}

	xs, ys := x.Values(), y.Values()
	res.Points = make([]model.Point, 0, len(xs)-window+1)
	for end := window; end <= len(xs); end++ {
		v, err := pearson(xs[end-window:end], ys[end-window:end])
		if err != nil {
			res.Undefined++
		}
		res.Points = append(res.Points, model.Point{Date: x.Points[end-1].Date, Value: v})
	}
	return res, nil
}

func pearson(x, y []float64) (float64, error) {
	if isConstant(x) || isConstant(y) {
		return math.NaN(), newError("pearson", ErrDivisionByZero, "zero variance")
	}
	return stat.Correlation(x, y, nil), nil
}

func isConstant(x []float64) bool {
	return len(x) == 0 || floats.Min(x) == floats.Max(x)
}

// KendallMatrix holds pairwise Kendall tau-b rank correlations.
type KendallMatrix struct {
	Symbols []string
	Values  [][]float64
}

// Kendall computes the tau-b matrix of the aligned columns. Undefined
// entries (a column with all ranks tied) are NaN.
func Kendall(a Aligned) (KendallMatrix, error) {
	if a.Len() < 2 {
		return KendallMatrix{}, newError("kendall", ErrInsufficientData, "aligned length %d, need at least 2", a.Len())
	}
	n := len(a.Symbols)
	m := KendallMatrix{Symbols: a.Symbols, Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			tau := kendallTauB(a.Values[i], a.Values[j])
			m.Values[i][j] = tau
			m.Values[j][i] = tau
		}
	}
	return m, nil
}

func kendallTauB(x, y []float64) float64 {
	var concordant, discordant, tiesX, tiesY float64
	for i := 0; i < len(x); i++ {
		for j := i + 1; j < len(x); j++ {
			dx, dy := sign(x[i]-x[j]), sign(y[i]-y[j])
			if dx == 0 {
				tiesX++
			}
			if dy == 0 {
				tiesY++
			}
			switch prod := dx * dy; {
			case prod > 0:
				concordant++
			case prod < 0:
				discordant++
			}
		}
	}
	n0 := float64(len(x)) * float64(len(x)-1) / 2
	den := math.Sqrt((n0 - tiesX) * (n0 - tiesY))
	if den == 0 {
		return math.NaN()
	}
	return (concordant - discordant) / den
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
