package risk

import (
	"math/rand"
	"time"

	"CoeffRisk/internal/domain/models"
	"CoeffRisk/pkg/util"
)

// calendarDays returns n consecutive day keys, newest first, ending at end.
func calendarDays(end time.Time, n int) []string {
	days := make([]string, n)
	for i := 0; i < n; i++ {
		days[i] = util.FormatDay(end.AddDate(0, 0, -i))
	}
	return days
}

// pricesFromReturns walks a newest-first return series back to prices so
// that BuildReturns over the same calendar reproduces rets.
func pricesFromReturns(start float64, rets []float64) []float64 {
	prices := make([]float64, len(rets)+1)
	prices[len(rets)] = start
	for i := len(rets) - 1; i >= 0; i-- {
		prices[i] = prices[i+1] * (1 + rets[i])
	}
	return prices
}

// constantGrowth returns n newest-first prices compounding at rate r per day.
func constantGrowth(start, r float64, n int) []float64 {
	rets := make([]float64, n-1)
	for i := range rets {
		rets[i] = r
	}
	return pricesFromReturns(start, rets)
}

func seriesPayload(days []string, prices []float64) models.Payload {
	recs := make([]models.PriceRecord, len(days))
	for i := range days {
		recs[i] = models.PriceRecord{Date: days[i] + "T00:00:00.000Z", Close: prices[i]}
	}
	return models.Payload{Kind: models.KindSeries, History: recs}
}

func priceSeries(ticker string, days []string, prices []float64) models.PriceSeries {
	closes := make(map[string]float64, len(days))
	for i, d := range days {
		closes[d] = prices[i]
	}
	return models.PriceSeries{Ticker: ticker, Closes: closes}
}

func randomReturns(rng *rand.Rand, n int, scale float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * scale
	}
	return out
}

// orthogonalTo removes from y its component along x after centering both,
// giving a series with zero sample correlation to x.
func orthogonalTo(x, y []float64) []float64 {
	mx, my := Mean(x), Mean(y)
	var dot, norm float64
	for i := range x {
		dot += (x[i] - mx) * (y[i] - my)
		norm += (x[i] - mx) * (x[i] - mx)
	}
	out := make([]float64, len(y))
	for i := range y {
		out[i] = (y[i] - my) - dot/norm*(x[i]-mx)
	}
	return out
}

func negate(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = -x
	}
	return out
}

func scale(xs []float64, k float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x * k
	}
	return out
}

var testEnd = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
