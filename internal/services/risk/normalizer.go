package risk

import (
	"bytes"
	"encoding/json"
	"fmt"

	"CoeffRisk/internal/domain/models"
	"CoeffRisk/pkg/util"
)

// SyntheticAdvisory is surfaced when any series came from simulated data.
const SyntheticAdvisory = "Demo Mode: using simulated data (API limit)"

type objectPayload struct {
	Historical []models.PriceRecord `json:"historical"`
	Meta       *models.PayloadMeta  `json:"meta"`
}

// DecodePayload resolves a raw data-layer response into a tagged Payload.
// It accepts a bare record array or an object carrying "historical" and an
// optional "meta" block. Objects without a history decode to an empty one.
func DecodePayload(raw []byte) (models.Payload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return models.Payload{Kind: models.KindSeries}, nil
	}
	switch raw[0] {
	case '[':
		var recs []models.PriceRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			return models.Payload{}, fmt.Errorf("decode series payload: %w", err)
		}
		return models.Payload{Kind: models.KindSeries, History: recs}, nil
	case '{':
		var obj objectPayload
		if err := json.Unmarshal(raw, &obj); err != nil {
			return models.Payload{}, fmt.Errorf("decode object payload: %w", err)
		}
		return models.Payload{Kind: models.KindHistorical, History: obj.Historical, Meta: obj.Meta}, nil
	case 'n':
		if string(raw) == "null" {
			return models.Payload{Kind: models.KindSeries}, nil
		}
	}
	return models.Payload{}, fmt.Errorf("decode payload: unexpected token %q", raw[0])
}

// Normalize converts a payload into a date->close lookup for ticker.
func Normalize(ticker string, p models.Payload, baseCurrency string) (models.PriceSeries, error) {
	closes := make(map[string]float64, len(p.History))
	latest := ""
	for _, rec := range p.History {
		day := util.DayKey(rec.Date)
		if day == "" {
			continue
		}
		closes[day] = rec.Close
		if day > latest {
			latest = day
		}
	}
	if len(closes) == 0 {
		return models.PriceSeries{}, &DataUnavailableError{Ticker: ticker}
	}

	s := models.PriceSeries{
		Ticker:      ticker,
		Closes:      closes,
		LatestQuote: models.Quote{Price: closes[latest], Currency: baseCurrency},
	}
	if p.Meta != nil {
		s.IsSynthetic = p.Meta.IsSynthetic
		if p.Meta.CurrentPrice > 0 {
			s.LatestQuote.Price = p.Meta.CurrentPrice
		}
		if p.Meta.Currency != "" {
			s.LatestQuote.Currency = p.Meta.Currency
		}
	}
	return s, nil
}
