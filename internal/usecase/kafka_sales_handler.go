package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgkafka "StockCast/pkg/kafka"
)

// KafkaSalesHandler consumes observations from the ingest topic and writes
// them to storage.
type KafkaSalesHandler struct {
	topic   string
	storage domrepo.ObservationStore
	metrics domrepo.Metrics
}

func NewKafkaSalesHandler(topic string, storage domrepo.ObservationStore, metrics domrepo.Metrics) *KafkaSalesHandler {
	return &KafkaSalesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaSalesHandler) Topic() string { return h.topic }

func (h *KafkaSalesHandler) Handle(ctx context.Context, b []byte) error {
	var o models.Observation
	if err := json.Unmarshal(b, &o); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	// E2E latency from observation date to now (approx, daily granularity)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(o.Date).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &o)
	h.metrics.RecordLatency("store_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordObservation("clickhouse", o.ProductID)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSalesHandler)(nil)
