package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHurstWindowSizes(t *testing.T) {
	assert.Equal(t, []int{8, 14, 25, 45, 80, 100}, HurstWindowSizes(8, 100))
	assert.Equal(t, []int{8, 14, 25, 45, 80}, HurstWindowSizes(8, 80))
	assert.Equal(t, []int{2, 4, 6, 11, 20}, HurstWindowSizes(2, 20))
	assert.Nil(t, HurstWindowSizes(10, 5))
	assert.Nil(t, HurstWindowSizes(0, 5))
}

func TestHurst_RandomWalkReturns(t *testing.T) {
	res, err := Hurst(returnSeries("SPY", gaussian(42, 10000, 0.01)), DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.H, 0.1)
	assert.Equal(t, 10000, res.N)
	assert.Empty(t, res.Dropped)
	assert.GreaterOrEqual(t, len(res.Windows), minHurstWindows)
	assert.Equal(t, RegimeRandomWalk, ClassifyHurst(res.H, 0.1))
}

func TestHurst_MeanReverting(t *testing.T) {
	noise := gaussian(7, 4001, 1)
	diff := make([]float64, 4000)
	for i := range diff {
		diff[i] = noise[i+1] - noise[i]
	}
	res, err := Hurst(returnSeries("MR", diff), DefaultConfig())
	require.NoError(t, err)
	assert.Less(t, res.H, 0.45)
	assert.Equal(t, RegimeMeanReverting, ClassifyHurst(res.H, DefaultHurstRandomWalkBand))
}

func TestHurst_Persistent(t *testing.T) {
	noise := gaussian(11, 4000, 1)
	ar := make([]float64, len(noise))
	for i := 1; i < len(ar); i++ {
		ar[i] = 0.9*ar[i-1] + noise[i]
	}
	res, err := Hurst(returnSeries("TR", ar), DefaultConfig())
	require.NoError(t, err)
	assert.Greater(t, res.H, 0.55)
	assert.Equal(t, RegimeTrending, ClassifyHurst(res.H, DefaultHurstRandomWalkBand))
}

func TestHurst_ConstantSeries(t *testing.T) {
	res, err := Hurst(returnSeries("FLAT", constant(200, 0)), DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.True(t, math.IsNaN(res.H))
	assert.Empty(t, res.Windows)
	require.Len(t, res.Dropped, len(HurstWindowSizes(DefaultHurstMinWindow, 100)))
	for _, d := range res.Dropped {
		assert.Contains(t, d.Reason, "zero standard deviation")
	}
	assert.Contains(t, err.Error(), "dropped n=8")
}

func TestHurst_TooShort(t *testing.T) {
	_, err := Hurst(returnSeries("SHORT", gaussian(1, 20, 0.01)), DefaultConfig())
	assert.ErrorIs(t, err, ErrInsufficientData)

	cfg := DefaultConfig()
	cfg.HurstMinWindow = 1
	_, err = Hurst(returnSeries("X", gaussian(1, 500, 0.01)), cfg)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestHurst_MaxWindowCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HurstMaxWindow = 64
	res, err := Hurst(returnSeries("CAP", gaussian(3, 2000, 0.01)), cfg)
	require.NoError(t, err)
	assert.Equal(t, 64, res.Windows[len(res.Windows)-1].Size)
}

func TestRescaledRange_SkipsFlatChunks(t *testing.T) {
	values := append(constant(10, 1), gaussian(5, 10, 1)...)
	w := rescaledRange(values, 10)
	assert.Equal(t, 1, w.Chunks)
	assert.Equal(t, 1, w.SkippedChunks)
	assert.Greater(t, w.MeanRS, 0.0)
}

func TestClassifyHurst(t *testing.T) {
	tests := []struct {
		h    float64
		want Regime
	}{
		{0.30, RegimeMeanReverting},
		{0.449, RegimeMeanReverting},
		{0.45, RegimeRandomWalk},
		{0.50, RegimeRandomWalk},
		{0.55, RegimeRandomWalk},
		{0.551, RegimeTrending},
		{0.80, RegimeTrending},
		{math.NaN(), RegimeUndefined},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyHurst(tt.h, 0.05), "h=%v", tt.h)
	}
	assert.Equal(t, "trending / persistent behavior", RegimeTrending.Description())
}
