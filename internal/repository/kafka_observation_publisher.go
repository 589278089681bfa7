package repository

import (
	"context"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgkafka "StockCast/pkg/kafka"
)

// KafkaObservationPublisher emits sales observations to the ingest topic,
// keyed by product so per-product order is preserved across partitions.
type KafkaObservationPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaObservationPublisher creates a Kafka-backed observation publisher.
func NewKafkaObservationPublisher(producer *pkgkafka.Producer, topic string) domrepo.ObservationPublisher {
	return &KafkaObservationPublisher{producer: producer, topic: topic}
}

func (p *KafkaObservationPublisher) Publish(ctx context.Context, o *models.Observation) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.ProductID), o)
}

func (p *KafkaObservationPublisher) PublishBatch(ctx context.Context, obs []models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(obs))
	for i := range obs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(obs[i].ProductID),
			Value: obs[i],
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaObservationPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
