package models

// AssetHolding is one line of a portfolio. Weight is a percentage (0-100).
type AssetHolding struct {
	Ticker string  `json:"ticker" validate:"required,ticker"`
	Weight float64 `json:"weight" validate:"gte=0,lte=100"`
}

// Fraction returns the weight as a fraction of one.
func (h AssetHolding) Fraction() float64 { return h.Weight / 100 }
