package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformance_Gaussian(t *testing.T) {
	res, err := Performance(returnSeries("SPY", gaussian(21, 10000, 0.01)), DefaultConfig())
	require.NoError(t, err)

	assert.InDelta(t, 0.01*math.Sqrt(252), res.AnnualVolatility, 0.01)
	assert.InDelta(t, -1.645*0.01, res.VaR, 0.002)
	assert.LessOrEqual(t, res.CVaR, res.VaR)
	assert.InDelta(t, 0, res.Skewness, 0.1)
	assert.InDelta(t, 0, res.ExcessKurtosis, 0.2)
	assert.LessOrEqual(t, res.MaxDrawdown, 0.0)
	assert.False(t, math.IsNaN(res.Sharpe))
}

func TestPerformance_ConstantReturns(t *testing.T) {
	res, err := Performance(returnSeries("FLAT", constant(50, 0.001)), DefaultConfig())
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.InDelta(t, 0.001*252, res.AnnualReturn, 1e-12)
	assert.InDelta(t, 0.0, res.AnnualVolatility, 1e-12)
	assert.True(t, math.IsNaN(res.Sharpe))
	assert.True(t, math.IsNaN(res.Skewness))
	assert.InDelta(t, 0.001, res.VaR, 1e-15)
	assert.Equal(t, 0.0, res.MaxDrawdown)
}

func TestPerformance_InsufficientData(t *testing.T) {
	_, err := Performance(returnSeries("ONE", []float64{0.01}), DefaultConfig())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, -0.15, maxDrawdown([]float64{0.1, -0.05, -0.1, 0.2}), 1e-12)
	assert.InDelta(t, -0.3, maxDrawdown([]float64{-0.1, -0.2, 0.05}), 1e-12)
	assert.Equal(t, 0.0, maxDrawdown([]float64{0.01, 0.02}))
}
