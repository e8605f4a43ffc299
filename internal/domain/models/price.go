package models

// PayloadKind tags the shape a data-layer response arrived in.
type PayloadKind string

const (
	// KindSeries is a bare array of daily records.
	KindSeries PayloadKind = "series"
	// KindHistorical is an object holding a "historical" array.
	KindHistorical PayloadKind = "historical"
)

// PriceRecord is a single daily close as delivered by the data layer.
// Date may still carry a time component.
type PriceRecord struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// PayloadMeta is the optional quote/provenance block of an object payload.
type PayloadMeta struct {
	CurrentPrice float64 `json:"currentPrice"`
	Currency     string  `json:"currency"`
	IsSynthetic  bool    `json:"isSynthetic"`
}

// Payload is a decoded data-layer response for one ticker.
type Payload struct {
	Kind    PayloadKind   `json:"kind"`
	History []PriceRecord `json:"history"`
	Meta    *PayloadMeta  `json:"meta,omitempty"`
}

// Quote is the latest known price of a ticker.
type Quote struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// PriceSeries is the normalized date->close lookup for one ticker.
// Date keys are ISO calendar days (YYYY-MM-DD).
type PriceSeries struct {
	Ticker      string
	Closes      map[string]float64
	IsSynthetic bool
	LatestQuote Quote
}

// Has reports whether the series has a close for day.
func (s PriceSeries) Has(day string) bool {
	_, ok := s.Closes[day]
	return ok
}
