package risk

// CorrelationMatrix evaluates Correlation for every ordered pair of return
// series. Rows and columns follow input position, so repeated tickers keep
// their own row.
func CorrelationMatrix(returns [][]float64) [][]float64 {
	k := len(returns)
	m := make([][]float64, k)
	for i := 0; i < k; i++ {
		m[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			m[i][j] = Correlation(returns[i], returns[j])
		}
	}
	return m
}
