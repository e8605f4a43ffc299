package risk

import (
	"fmt"
	"time"

	"CoeffRisk/internal/domain/models"
	domsvc "CoeffRisk/internal/domain/service"
	"CoeffRisk/pkg/util"

	"github.com/shopspring/decimal"
)

var maxTotalWeight = decimal.NewFromInt(100)

// Params bounds a run. All values are explicit so the engine needs no
// environment to be exercised.
type Params struct {
	Lookback     int    // max common trading days kept
	MinOverlap   int    // fewer common days fails the run
	MaxAssets    int    // holdings per run, benchmark excluded
	BaseCurrency string // quote currency when a payload has none
}

// DefaultParams mirrors the production limits.
func DefaultParams() Params {
	return Params{Lookback: 100, MinOverlap: 30, MaxAssets: 10, BaseCurrency: "USD"}
}

// Engine is the synchronous risk pipeline.
type Engine struct {
	params Params
	now    func() time.Time
}

// NewEngine builds an engine; zero fields in p fall back to DefaultParams.
func NewEngine(p Params) *Engine {
	def := DefaultParams()
	if p.Lookback <= 0 {
		p.Lookback = def.Lookback
	}
	if p.MinOverlap <= 0 {
		p.MinOverlap = def.MinOverlap
	}
	if p.MaxAssets <= 0 {
		p.MaxAssets = def.MaxAssets
	}
	if p.BaseCurrency == "" {
		p.BaseCurrency = def.BaseCurrency
	}
	return &Engine{params: p, now: time.Now}
}

// Params returns the effective parameters.
func (e *Engine) Params() Params { return e.params }

// ValidateHoldings normalizes tickers and checks the portfolio limits. It
// returns a new slice and leaves the input untouched.
func ValidateHoldings(holdings []models.AssetHolding, maxAssets int) ([]models.AssetHolding, error) {
	if len(holdings) == 0 {
		return nil, fmt.Errorf("%w: portfolio is empty", ErrInvalidHolding)
	}
	if maxAssets > 0 && len(holdings) > maxAssets {
		return nil, fmt.Errorf("%w: %d holdings, max %d", ErrTooManyAssets, len(holdings), maxAssets)
	}
	out := make([]models.AssetHolding, len(holdings))
	for i, h := range holdings {
		t := util.NormalizeTicker(h.Ticker)
		if t == "" {
			return nil, fmt.Errorf("%w: holding %d has no ticker", ErrInvalidHolding, i+1)
		}
		if h.Weight < 0 || h.Weight > 100 {
			return nil, fmt.Errorf("%w: %s weight %.2f outside 0-100", ErrInvalidHolding, t, h.Weight)
		}
		out[i] = models.AssetHolding{Ticker: t, Weight: h.Weight}
	}
	if total := TotalWeight(out); total.GreaterThan(maxTotalWeight) {
		return nil, fmt.Errorf("%w: total %s%%", ErrWeightOverflow, total.String())
	}
	return out, nil
}

// TotalWeight sums percentage weights in decimal, so 0.7+88.4+10.9 is
// exactly 100.
func TotalWeight(holdings []models.AssetHolding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(decimal.NewFromFloat(h.Weight))
	}
	return total
}

// Analyze runs the full pipeline over one snapshot of payloads.
func (e *Engine) Analyze(in models.AnalysisInput) (*models.AnalysisResult, error) {
	holdings, err := ValidateHoldings(in.Holdings, e.params.MaxAssets)
	if err != nil {
		return nil, err
	}
	benchmark := util.NormalizeTicker(in.Benchmark)
	if benchmark == "" {
		return nil, fmt.Errorf("%w: benchmark is required", ErrInvalidHolding)
	}

	// One series per holding position plus the benchmark last. Repeated
	// tickers share a normalized series.
	byTicker := make(map[string]models.PriceSeries, len(holdings)+1)
	ordered := make([]string, 0, len(holdings)+1)
	for _, h := range holdings {
		ordered = append(ordered, h.Ticker)
	}
	ordered = append(ordered, benchmark)

	quotes := make(map[string]models.Quote, len(ordered))
	synthetic := false
	for _, t := range ordered {
		if _, ok := byTicker[t]; ok {
			continue
		}
		s, err := Normalize(t, in.Payloads[t], e.params.BaseCurrency)
		if err != nil {
			return nil, err
		}
		byTicker[t] = s
		quotes[t] = s.LatestQuote
		synthetic = synthetic || s.IsSynthetic
	}

	series := make([]models.PriceSeries, 0, len(byTicker))
	for _, t := range ordered {
		series = append(series, byTicker[t])
	}
	calendar, err := AlignCalendar(series, e.params.Lookback, e.params.MinOverlap)
	if err != nil {
		return nil, err
	}

	returns := make([][]float64, len(holdings))
	weights := make([]float64, len(holdings))
	tickers := make([]string, len(holdings))
	for i, h := range holdings {
		returns[i] = BuildReturns(calendar, byTicker[h.Ticker])
		weights[i] = h.Weight
		tickers[i] = h.Ticker
	}
	benchReturns := BuildReturns(calendar, byTicker[benchmark])

	matrix := CorrelationMatrix(returns)
	portfolio := PortfolioReturns(returns, weights)
	beta, err := Beta(portfolio, benchReturns)
	if err != nil {
		return nil, err
	}
	score, avg := Fragility(matrix, weights)

	res := &models.AnalysisResult{
		Tickers:        tickers,
		Weights:        weights,
		Benchmark:      benchmark,
		Matrix:         matrix,
		Beta:           beta,
		FragilityScore: score,
		AvgCorrelation: avg,
		CommonDays:     len(calendar),
		LatestQuotes:   quotes,
		GeneratedAt:    e.now().UTC(),
	}
	if synthetic {
		res.DataQuality = SyntheticAdvisory
	}
	return res, nil
}

var _ domsvc.RiskEngine = (*Engine)(nil)
