package repository

import (
	"context"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgkafka "StockCast/pkg/kafka"
)

// KafkaRecommendationPublisher emits reorder recommendations to a Kafka
// topic, keyed by product so each product's stream stays ordered.
type KafkaRecommendationPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRecommendationPublisher creates a Kafka-backed publisher.
func NewKafkaRecommendationPublisher(producer *pkgkafka.Producer, topic string) domrepo.RecommendationPublisher {
	return &KafkaRecommendationPublisher{producer: producer, topic: topic}
}

func (p *KafkaRecommendationPublisher) Publish(ctx context.Context, rec *models.Recommendation) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.ProductID), rec)
}

func (p *KafkaRecommendationPublisher) PublishBatch(ctx context.Context, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(recs))
	for i := range recs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(recs[i].ProductID),
			Value: recs[i],
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaRecommendationPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
