package usecase

import (
	"testing"

	"CoeffRisk/internal/domain/models"
	"CoeffRisk/internal/services/risk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldingEditsReturnNewSnapshots(t *testing.T) {
	base := []models.AssetHolding{{Ticker: "AAPL", Weight: 40}, {Ticker: "MSFT", Weight: 30}}

	added, err := AddHolding(base, models.AssetHolding{Ticker: " nvda", Weight: 10}, 10)
	require.NoError(t, err)
	assert.Len(t, base, 2)
	assert.Equal(t, "NVDA", added[2].Ticker)

	updated, err := UpdateWeight(added, 0, 25)
	require.NoError(t, err)
	assert.Equal(t, 40.0, added[0].Weight)
	assert.Equal(t, 25.0, updated[0].Weight)

	renamed, err := UpdateTicker(updated, 1, "goog")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", updated[1].Ticker)
	assert.Equal(t, "GOOG", renamed[1].Ticker)

	removed, err := RemoveHolding(renamed, 0)
	require.NoError(t, err)
	assert.Len(t, renamed, 3)
	assert.Equal(t, []models.AssetHolding{{Ticker: "GOOG", Weight: 30}, {Ticker: "NVDA", Weight: 10}}, removed)
	assert.Equal(t, 40.0, TotalWeight(removed))
}

func TestHoldingEditErrors(t *testing.T) {
	hs := []models.AssetHolding{{Ticker: "A", Weight: 10}}

	_, err := AddHolding(hs, models.AssetHolding{Ticker: "B"}, 1)
	assert.ErrorIs(t, err, risk.ErrTooManyAssets)
	_, err = RemoveHolding(hs, 1)
	assert.ErrorIs(t, err, ErrHoldingIndex)
	_, err = UpdateWeight(hs, 0, 101)
	assert.ErrorIs(t, err, risk.ErrInvalidHolding)
	_, err = UpdateTicker(hs, -1, "X")
	assert.ErrorIs(t, err, ErrHoldingIndex)
}

func TestNormalizeHoldings(t *testing.T) {
	out, total, err := NormalizeHoldings([]models.AssetHolding{{Ticker: "spy ", Weight: 60}, {Ticker: "qqq", Weight: 15.5}}, 10)
	require.NoError(t, err)
	assert.Equal(t, "SPY", out[0].Ticker)
	assert.Equal(t, 75.5, total)

	_, _, err = NormalizeHoldings([]models.AssetHolding{{Ticker: "A", Weight: 70}, {Ticker: "B", Weight: 31}}, 10)
	assert.ErrorIs(t, err, risk.ErrWeightOverflow)
}

func TestNormalizeHoldingsExactTotal(t *testing.T) {
	hs := []models.AssetHolding{{Ticker: "a", Weight: 1.4}, {Ticker: "b", Weight: 68.9}, {Ticker: "c", Weight: 29.7}}
	out, total, err := NormalizeHoldings(hs, 10)
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Equal(t, 100.0, total)
}
