package risk

import "CoeffRisk/internal/domain/models"

// BuildReturns computes simple daily returns along a newest-first calendar.
// Element i is the return from calendar[i+1] to calendar[i]; a zero prior
// close yields 0.
func BuildReturns(calendar []string, s models.PriceSeries) []float64 {
	if len(calendar) < 2 {
		return nil
	}
	out := make([]float64, len(calendar)-1)
	for i := 0; i < len(calendar)-1; i++ {
		today := s.Closes[calendar[i]]
		yesterday := s.Closes[calendar[i+1]]
		if yesterday == 0 {
			continue
		}
		out[i] = (today - yesterday) / yesterday
	}
	return out
}
