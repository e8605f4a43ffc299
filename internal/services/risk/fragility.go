package risk

import "math"

// Fragility turns the weighted average pairwise correlation into a 0-100
// score through a square-root curve, so a 0.5 average already scores ~71.
//
// Only pairs where both holdings carry weight count. With no such pair the
// portfolio is treated as fully concentrated (average 1).
func Fragility(matrix [][]float64, weights []float64) (score int, avgCorrelation float64) {
	var weightedSum, weightsSum float64
	pairs := 0
	for i := 0; i < len(weights); i++ {
		for j := i + 1; j < len(weights); j++ {
			wi, wj := weights[i]/100, weights[j]/100
			if wi > 0 && wj > 0 {
				weightedSum += wi * wj * matrix[i][j]
				weightsSum += wi * wj
				pairs++
			}
		}
	}

	switch {
	case pairs == 0:
		avgCorrelation = 1
	case weightsSum > 0:
		avgCorrelation = weightedSum / weightsSum
	}

	curve := 0.0
	if avgCorrelation > 0 {
		curve = math.Sqrt(avgCorrelation)
	}
	score = int(math.Round(curve * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, avgCorrelation
}
