package repository

import (
	"context"

	"CoeffRisk/internal/domain/models"
)

// PriceSource supplies the raw daily history for one ticker.
type PriceSource interface {
	Fetch(ctx context.Context, ticker string) (models.Payload, error)
}

// ResultPublisher emits completed analysis results downstream.
type ResultPublisher interface {
	PublishResult(ctx context.Context, requestID string, res *models.AnalysisResult) error
	Close() error
}

type Metrics interface {
	RecordAnalysis(outcome string)
	RecordError(kind string)
	RecordFragility(benchmark string, score int)
	RecordLatency(op string, seconds float64)
	RecordSynthetic(ticker string)
}

// HistoryStore archives fetched histories.
type HistoryStore interface {
	StoreHistory(ctx context.Context, ticker string, p models.Payload) error
}
