package risk

// Beta is corr(p, b) * stddev(p) / stddev(b). A flat benchmark makes the
// ratio undefined and fails with ErrDegenerateVolatility.
func Beta(portfolio, benchmark []float64) (float64, error) {
	sigmaB := StdDev(benchmark)
	if sigmaB == 0 {
		return 0, ErrDegenerateVolatility
	}
	return Correlation(portfolio, benchmark) * (StdDev(portfolio) / sigmaB), nil
}
