package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean is the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// flatTolerance is the relative spread below which a series counts as
// constant. Returns built from one fixed daily rate differ only by
// rounding, around 1e-17.
const flatTolerance = 1e-12

// StdDev is the population standard deviation (divides by N). A spread at
// or below flatTolerance*max(|mean|, 1) is reported as exactly 0.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	if math.IsNaN(std) || std <= flatTolerance*math.Max(math.Abs(mean), 1) {
		return 0
	}
	return std
}

// Correlation is the Pearson coefficient of paired samples. It returns 0
// when either side has zero variance, when the lengths differ, or when
// there are no samples.
func Correlation(xs, ys []float64) float64 {
	if len(xs) == 0 || len(xs) != len(ys) {
		return 0
	}
	if StdDev(xs) == 0 || StdDev(ys) == 0 {
		return 0
	}
	c := stat.Correlation(xs, ys, nil)
	if math.IsNaN(c) {
		return 0
	}
	return c
}
