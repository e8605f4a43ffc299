package repository

import (
	"context"
	"time"

	"CoeffRisk/internal/domain/models"
	domrepo "CoeffRisk/internal/domain/repository"
	pkgkafka "CoeffRisk/pkg/kafka"

	"github.com/segmentio/kafka-go"
)

// ResultMessage is the wire form of a published analysis.
type ResultMessage struct {
	RequestID   string                 `json:"requestId,omitempty"`
	PublishedAt time.Time              `json:"publishedAt"`
	Result      *models.AnalysisResult `json:"result"`
}

// KafkaResultPublisher writes results to a topic keyed by request id.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	now      func() time.Time
}

func NewKafkaResultPublisher(p *pkgkafka.Producer, topic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: p, topic: topic, now: time.Now}
}

func (k *KafkaResultPublisher) PublishResult(ctx context.Context, requestID string, res *models.AnalysisResult) error {
	msg := ResultMessage{RequestID: requestID, PublishedAt: k.now().UTC(), Result: res}
	var key []byte
	if requestID != "" {
		key = []byte(requestID)
	}
	return k.producer.Publish(ctx, k.topic, key, msg, kafka.Header{Key: "content-type", Value: []byte("application/json")})
}

func (k *KafkaResultPublisher) Close() error { return k.producer.Close() }

var _ domrepo.ResultPublisher = (*KafkaResultPublisher)(nil)
