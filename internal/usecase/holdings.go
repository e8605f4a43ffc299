package usecase

import (
	"errors"
	"fmt"

	"CoeffRisk/internal/domain/models"
	"CoeffRisk/internal/services/risk"
	"CoeffRisk/pkg/util"
)

// Portfolio edits. Every function returns a fresh slice and never writes
// through the one it was given, so a run can hold on to its snapshot while
// the caller keeps editing.

var ErrHoldingIndex = errors.New("holding index out of range")

// AddHolding appends a holding, refusing to grow past maxAssets.
func AddHolding(hs []models.AssetHolding, h models.AssetHolding, maxAssets int) ([]models.AssetHolding, error) {
	if maxAssets > 0 && len(hs) >= maxAssets {
		return nil, fmt.Errorf("%w: max %d holdings", risk.ErrTooManyAssets, maxAssets)
	}
	out := make([]models.AssetHolding, len(hs), len(hs)+1)
	copy(out, hs)
	h.Ticker = util.NormalizeTicker(h.Ticker)
	return append(out, h), nil
}

// RemoveHolding drops the holding at index i.
func RemoveHolding(hs []models.AssetHolding, i int) ([]models.AssetHolding, error) {
	if i < 0 || i >= len(hs) {
		return nil, fmt.Errorf("%w: %d", ErrHoldingIndex, i)
	}
	out := make([]models.AssetHolding, 0, len(hs)-1)
	out = append(out, hs[:i]...)
	return append(out, hs[i+1:]...), nil
}

// UpdateWeight sets the weight of the holding at index i.
func UpdateWeight(hs []models.AssetHolding, i int, weight float64) ([]models.AssetHolding, error) {
	if i < 0 || i >= len(hs) {
		return nil, fmt.Errorf("%w: %d", ErrHoldingIndex, i)
	}
	if weight < 0 || weight > 100 {
		return nil, fmt.Errorf("%w: weight %.2f outside 0-100", risk.ErrInvalidHolding, weight)
	}
	out := clone(hs)
	out[i].Weight = weight
	return out, nil
}

// UpdateTicker renames the holding at index i. Tickers are upper-cased.
func UpdateTicker(hs []models.AssetHolding, i int, ticker string) ([]models.AssetHolding, error) {
	if i < 0 || i >= len(hs) {
		return nil, fmt.Errorf("%w: %d", ErrHoldingIndex, i)
	}
	out := clone(hs)
	out[i].Ticker = util.NormalizeTicker(ticker)
	return out, nil
}

// TotalWeight sums the percentage weights.
func TotalWeight(hs []models.AssetHolding) float64 {
	return risk.TotalWeight(hs).InexactFloat64()
}

// NormalizeHoldings validates hs against the engine limits and returns the
// normalized copy with its total weight.
func NormalizeHoldings(hs []models.AssetHolding, maxAssets int) ([]models.AssetHolding, float64, error) {
	out, err := risk.ValidateHoldings(hs, maxAssets)
	if err != nil {
		return nil, 0, err
	}
	return out, TotalWeight(out), nil
}

func clone(hs []models.AssetHolding) []models.AssetHolding {
	out := make([]models.AssetHolding, len(hs))
	copy(out, hs)
	return out
}
