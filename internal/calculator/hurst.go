package calculator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"GreenMetrics/internal/model"
)

// hurstScaleStep is the ratio between consecutive window sizes (a quarter decade).
var hurstScaleStep = math.Pow(10, 0.25)

// minHurstWindows is the number of valid window sizes the regression needs.
const minHurstWindows = 3

// WindowRS is the mean rescaled range of one window size.
type WindowRS struct {
	Size          int
	Chunks        int
	SkippedChunks int
	MeanRS        float64
}

// DroppedWindow is a window size excluded from the regression.
type DroppedWindow struct {
	Size   int
	Reason string
}

// HurstResult is the R/S estimate of the Hurst exponent. Interpretation is
// left to ClassifyHurst.
type HurstResult struct {
	Period    model.Period
	N         int
	H         float64
	Intercept float64
	Windows   []WindowRS
	Dropped   []DroppedWindow
}

// HurstWindowSizes returns log-spaced window sizes from minSize to maxSize,
// deduplicated after rounding, always ending at maxSize.
func HurstWindowSizes(minSize, maxSize int) []int {
	if minSize <= 0 || maxSize < minSize {
		return nil
	}
	var sizes []int
	for s := float64(minSize); ; s *= hurstScaleStep {
		n := int(math.Round(s))
		if n > maxSize {
			break
		}
		if len(sizes) == 0 || sizes[len(sizes)-1] != n {
			sizes = append(sizes, n)
		}
	}
	if sizes[len(sizes)-1] != maxSize {
		sizes = append(sizes, maxSize)
	}
	return sizes
}

// Hurst estimates H by rescaled-range analysis: the mean R/S of non-overlapping
// chunks is computed for each window size, and H is the OLS slope of
// log(mean R/S) against log(size). Chunks with zero standard deviation are
// skipped; a size whose chunks are all degenerate is dropped.
func Hurst(returns model.ReturnSeries, cfg Config) (HurstResult, error) {
	cfg = cfg.WithDefaults()
	n := returns.Len()
	res := HurstResult{Period: returns.Period(), N: n, H: math.NaN(), Intercept: math.NaN()}

	if cfg.HurstMinWindow < 2 {
		return res, newError("hurst", ErrInvalidWindow, "minimum window %d, need at least 2", cfg.HurstMinWindow)
	}
	maxSize := n / 2
	if cfg.HurstMaxWindow > 0 && cfg.HurstMaxWindow < maxSize {
		maxSize = cfg.HurstMaxWindow
	}
	sizes := HurstWindowSizes(cfg.HurstMinWindow, maxSize)
	if len(sizes) < minHurstWindows {
		return res, newError("hurst", ErrInsufficientData,
			"%d returns allow %d window sizes between %d and %d, need %d", n, len(sizes), cfg.HurstMinWindow, maxSize, minHurstWindows)
	}

	values := returns.Values()
	var logSize, logRS []float64
	for _, size := range sizes {
		w := rescaledRange(values, size)
		if w.Chunks == 0 {
			res.Dropped = append(res.Dropped, DroppedWindow{
				Size:   size,
				Reason: fmt.Sprintf("all %d chunks have zero standard deviation", w.SkippedChunks),
			})
			continue
		}
		res.Windows = append(res.Windows, w)
		logSize = append(logSize, math.Log(float64(size)))
		logRS = append(logRS, math.Log(w.MeanRS))
	}

	if len(res.Windows) < minHurstWindows {
		return res, newError("hurst", ErrInsufficientData,
			"%d valid window sizes, need %d; dropped %s", len(res.Windows), minHurstWindows, describeDropped(res.Dropped))
	}
	res.Intercept, res.H = stat.LinearRegression(logSize, logRS, nil, false)
	return res, nil
}

// rescaledRange averages R/S over the non-overlapping chunks of length size.
// A trailing remainder shorter than size is ignored.
func rescaledRange(values []float64, size int) WindowRS {
	w := WindowRS{Size: size}
	var sum float64
	dev := make([]float64, size)
	for start := 0; start+size <= len(values); start += size {
		chunk := values[start : start+size]
		mean, std := meanPopStd(chunk)
		if std == 0 {
			w.SkippedChunks++
			continue
		}
		for i, v := range chunk {
			dev[i] = v - mean
		}
		floats.CumSum(dev, dev)
		// The cumulative deviation returns to zero at the chunk end, so the
		// range always spans zero.
		hi := math.Max(floats.Max(dev), 0)
		lo := math.Min(floats.Min(dev), 0)
		sum += (hi - lo) / std
		w.Chunks++
	}
	if w.Chunks > 0 {
		w.MeanRS = sum / float64(w.Chunks)
	}
	return w
}

func meanPopStd(x []float64) (mean, std float64) {
	if isConstant(x) {
		return x[0], 0
	}
	mean = stat.Mean(x, nil)
	var ss float64
	for _, v := range x {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(x)))
}

func describeDropped(dropped []DroppedWindow) string {
	if len(dropped) == 0 {
		return "none"
	}
	s := ""
	for i, d := range dropped {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("n=%d (%s)", d.Size, d.Reason)
	}
	return s
}

// Regime is the qualitative reading of a Hurst exponent.
type Regime string

const (
	RegimeMeanReverting Regime = "MEAN_REVERTING"
	RegimeRandomWalk    Regime = "RANDOM_WALK"
	RegimeTrending      Regime = "TRENDING"
	RegimeUndefined     Regime = "UNDEFINED"
)

// ClassifyHurst maps h to a regime; values within band of 0.5 are a random walk.
func ClassifyHurst(h, band float64) Regime {
	switch {
	case math.IsNaN(h):
		return RegimeUndefined
	case h < 0.5-band:
		return RegimeMeanReverting
	case h > 0.5+band:
		return RegimeTrending
	default:
		return RegimeRandomWalk
	}
}

// Description returns a human-readable label for the regime.
func (r Regime) Description() string {
	switch r {
	case RegimeMeanReverting:
		return "mean-reverting behavior"
	case RegimeRandomWalk:
		return "random walk behavior"
	case RegimeTrending:
		return "trending / persistent behavior"
	default:
		return "undefined"
	}
}
