package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"CoeffRisk/internal/domain/models"
	domrepo "CoeffRisk/internal/domain/repository"
	"CoeffRisk/internal/services/risk"
	pkgkafka "CoeffRisk/pkg/kafka"
	"CoeffRisk/pkg/logger"
)

// KafkaRequestsHandler runs an analysis for every request message. The
// result leaves through the analysis publisher.
type KafkaRequestsHandler struct {
	topic    string
	analysis *PortfolioAnalysis
	metrics  domrepo.Metrics
	log      *logger.Logger
}

func NewKafkaRequestsHandler(topic string, analysis *PortfolioAnalysis, metrics domrepo.Metrics, log *logger.Logger) *KafkaRequestsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &KafkaRequestsHandler{topic: topic, analysis: analysis, metrics: metrics, log: log.With("kafka_requests")}
}

func (h *KafkaRequestsHandler) Topic() string { return h.topic }

// Handle returns an error only for messages worth retrying or dead-lettering.
// Runs that fail on their own inputs are logged and committed.
func (h *KafkaRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var req models.AnalysisRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	_, err := h.analysis.Run(ctx, req)
	if err == nil {
		return nil
	}
	if terminal(err) {
		h.log.Warn("request dropped",
			logger.String("request_id", req.RequestID),
			logger.String("reason", ErrorKind(err)),
		)
		return nil
	}
	return err
}

// terminal reports failures that would repeat on redelivery. A missing
// history is terminal only when the source answered without one; a failed
// fetch may succeed later.
func terminal(err error) bool {
	var du *risk.DataUnavailableError
	if errors.As(err, &du) {
		return du.Err == nil
	}
	for _, target := range []error{
		risk.ErrInsufficientOverlap,
		risk.ErrDegenerateVolatility,
		risk.ErrWeightOverflow,
		risk.ErrTooManyAssets,
		risk.ErrInvalidHolding,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var _ pkgkafka.MessageHandler = (*KafkaRequestsHandler)(nil)
