package models

import "time"

// AnalysisInput is everything the risk engine needs for one run.
// Payloads are keyed by upper-case ticker and must include the benchmark.
type AnalysisInput struct {
	Holdings  []AssetHolding
	Benchmark string
	Payloads  map[string]Payload
}

// AnalysisResult is the immutable outcome of one completed run.
type AnalysisResult struct {
	Tickers        []string         `json:"tickers"`
	Weights        []float64        `json:"weights"`
	Benchmark      string           `json:"benchmark"`
	Matrix         [][]float64      `json:"matrix"`
	Beta           float64          `json:"beta"`
	FragilityScore int              `json:"fragilityScore"`
	AvgCorrelation float64          `json:"avgCorrelation"`
	CommonDays     int              `json:"commonDays"`
	LatestQuotes   map[string]Quote `json:"latestQuotes"`
	DataQuality    string           `json:"dataQuality,omitempty"`
	GeneratedAt    time.Time        `json:"generatedAt"`
}

// Synthetic reports whether the run relied on simulated data.
func (r *AnalysisResult) Synthetic() bool { return r.DataQuality != "" }
