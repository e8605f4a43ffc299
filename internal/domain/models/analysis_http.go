package models

// Requests for the analysis HTTP and Kafka endpoints.

type AnalysisRequest struct {
	RequestID string         `json:"requestId,omitempty" validate:"omitempty,max=64"`
	Holdings  []AssetHolding `json:"holdings" validate:"required,min=1,dive"`
	Benchmark string         `json:"benchmark,omitempty" validate:"omitempty,max=20"`
}

type HoldingsRequest struct {
	Holdings []AssetHolding `json:"holdings" validate:"required,dive"`
}
