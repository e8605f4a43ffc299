package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationMatrixSymmetricUnitDiagonal(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	returns := [][]float64{
		randomReturns(rng, 50, 0.01),
		randomReturns(rng, 50, 0.02),
		randomReturns(rng, 50, 0.03),
		randomReturns(rng, 50, 0.04),
	}
	m := CorrelationMatrix(returns)
	assert.Len(t, m, 4)
	for i := range m {
		assert.Len(t, m[i], 4)
		assert.InDelta(t, 1.0, m[i][i], 1e-9)
		for j := range m {
			assert.InDelta(t, m[i][j], m[j][i], 1e-12)
			assert.LessOrEqual(t, m[i][j], 1+1e-9)
			assert.GreaterOrEqual(t, m[i][j], -1-1e-9)
		}
	}
}

func TestCorrelationMatrixRepeatedSeries(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	x := randomReturns(rng, 30, 0.02)
	m := CorrelationMatrix([][]float64{x, x})
	assert.InDelta(t, 1.0, m[0][1], 1e-9)
	assert.InDelta(t, 1.0, m[1][0], 1e-9)
}

func TestCorrelationMatrixFlatAsset(t *testing.T) {
	flat := make([]float64, 10)
	m := CorrelationMatrix([][]float64{flat, {1, 2, 3, 4, 5, 6, 7, 8, 9, 10}})
	assert.Equal(t, 0.0, m[0][0])
	assert.Equal(t, 0.0, m[0][1])
}

func TestPortfolioReturnsWeightsArePercentages(t *testing.T) {
	a := []float64{0.10, -0.10, 0.02}
	b := []float64{0.20, 0.00, -0.04}
	z := []float64{0.50, 0.50, 0.50}

	got := PortfolioReturns([][]float64{a, b, z}, []float64{50, 25, 0})
	assert.InDeltaSlice(t, []float64{0.10, -0.05, 0.0}, got, 1e-12)
	assert.Nil(t, PortfolioReturns(nil, nil))
}
