package service

import (
	"CoeffRisk/internal/domain/models"
)

// RiskEngine computes correlation, beta and fragility for one snapshot of
// price payloads. Implementations are synchronous and perform no I/O.
type RiskEngine interface {
	Analyze(in models.AnalysisInput) (*models.AnalysisResult, error)
}
