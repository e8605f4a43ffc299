package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetaIdenticalSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	x := randomReturns(rng, 99, 0.015)
	beta, err := Beta(x, x)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, beta, 1e-9)
}

func TestBetaScaledPortfolio(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	bench := randomReturns(rng, 99, 0.01)

	beta, err := Beta(scale(bench, 2), bench)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, beta, 1e-9)

	beta, err = Beta(scale(bench, -0.5), bench)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, beta, 1e-9)
}

func TestBetaFlatBenchmark(t *testing.T) {
	_, err := Beta([]float64{0.01, -0.02, 0.03}, []float64{0, 0, 0})
	assert.ErrorIs(t, err, ErrDegenerateVolatility)
}

func TestBetaFlatPortfolio(t *testing.T) {
	beta, err := Beta([]float64{0, 0, 0}, []float64{0.01, -0.02, 0.03})
	require.NoError(t, err)
	assert.Equal(t, 0.0, beta)
}

func TestBetaConstantGrowthBenchmark(t *testing.T) {
	days := calendarDays(testEnd, 100)
	bench := BuildReturns(days, priceSeries("SPY", days, constantGrowth(400, 0.002, 100)))
	rng := rand.New(rand.NewSource(21))

	_, err := Beta(randomReturns(rng, 99, 0.01), bench)
	assert.ErrorIs(t, err, ErrDegenerateVolatility)
}
