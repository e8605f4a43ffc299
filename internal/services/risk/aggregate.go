package risk

// PortfolioReturns blends per-asset returns with percentage weights:
// out[t] = sum_i returns[i][t] * weights[i] / 100.
func PortfolioReturns(returns [][]float64, weights []float64) []float64 {
	if len(returns) == 0 {
		return nil
	}
	out := make([]float64, len(returns[0]))
	for i, series := range returns {
		w := weights[i] / 100
		for t := range out {
			if t < len(series) {
				out[t] += series[t] * w
			}
		}
	}
	return out
}
