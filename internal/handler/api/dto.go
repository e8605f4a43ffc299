package api

import (
	"sort"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"CoeffRisk/internal/domain/models"
)

// QuoteDTO is a latest price with a currency-formatted display string.
type QuoteDTO struct {
	Ticker   string  `json:"ticker"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Display  string  `json:"display"`
}

// AnalysisResultDTO is the display form of a run: ratios rounded to two
// decimals, quotes formatted for their currency.
type AnalysisResultDTO struct {
	Tickers        []string    `json:"tickers"`
	Weights        []float64   `json:"weights"`
	Benchmark      string      `json:"benchmark"`
	Matrix         [][]float64 `json:"matrix"`
	Beta           float64     `json:"beta"`
	FragilityScore int         `json:"fragilityScore"`
	AvgCorrelation float64     `json:"avgCorrelation"`
	CommonDays     int         `json:"commonDays"`
	Quotes         []QuoteDTO  `json:"quotes"`
	DataQuality    string      `json:"dataQuality,omitempty"`
	GeneratedAt    time.Time   `json:"generatedAt"`
}

// HoldingsDTO echoes a normalized portfolio.
type HoldingsDTO struct {
	Holdings    []models.AssetHolding `json:"holdings"`
	TotalWeight float64               `json:"totalWeight"`
	Remaining   float64               `json:"remaining"`
}

func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// NewAnalysisResultDTO rounds res for display. res is not modified.
func NewAnalysisResultDTO(res *models.AnalysisResult) AnalysisResultDTO {
	matrix := make([][]float64, len(res.Matrix))
	for i, row := range res.Matrix {
		matrix[i] = make([]float64, len(row))
		for j, v := range row {
			matrix[i][j] = round2(v)
		}
	}

	tickers := make([]string, 0, len(res.LatestQuotes))
	for t := range res.LatestQuotes {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	quotes := make([]QuoteDTO, 0, len(tickers))
	for _, t := range tickers {
		q := res.LatestQuotes[t]
		quotes = append(quotes, QuoteDTO{
			Ticker:   t,
			Price:    round2(q.Price),
			Currency: q.Currency,
			Display:  FormatPrice(q.Price, q.Currency),
		})
	}

	return AnalysisResultDTO{
		Tickers:        append([]string(nil), res.Tickers...),
		Weights:        append([]float64(nil), res.Weights...),
		Benchmark:      res.Benchmark,
		Matrix:         matrix,
		Beta:           round2(res.Beta),
		FragilityScore: res.FragilityScore,
		AvgCorrelation: round2(res.AvgCorrelation),
		CommonDays:     res.CommonDays,
		Quotes:         quotes,
		DataQuality:    res.DataQuality,
		GeneratedAt:    res.GeneratedAt,
	}
}

// FormatPrice renders a price with the currency's symbol and minor units.
// Unknown currency codes fall back to "<amount> <CODE>".
func FormatPrice(price float64, currency string) string {
	if money.GetCurrency(currency) == nil {
		return decimal.NewFromFloat(price).StringFixed(2) + " " + currency
	}
	return money.NewFromFloat(price, currency).Display()
}
