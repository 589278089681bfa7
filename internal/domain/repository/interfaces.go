package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
)

// ObservationStore persists and queries per-product daily sales records.
// Observations are append-only; rows are never mutated after insert.
type ObservationStore interface {
	Store(ctx context.Context, o *models.Observation) error
	StoreBatch(ctx context.Context, obs []models.Observation) error
	Query(ctx context.Context, productID string, from, to time.Time, limit int) ([]models.Observation, error)
	LatestN(ctx context.Context, productID string, n int) ([]models.Observation, error)
	ListProducts(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
	Close() error
}

// FeatureStore persists derived feature rows. Rows are recomputed and
// replaced wholesale whenever the observation set changes.
type FeatureStore interface {
	Replace(ctx context.Context, rows []models.FeatureRow) error
	Query(ctx context.Context, productID string, from, to time.Time) ([]models.FeatureRow, error)
	Close() error
}

// SalesStream is a live feed of point-of-sale observations (websocket or
// similar) consumed by the ingest collector.
type SalesStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Observation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// ObservationPublisher emits raw sales observations to the ingest topic,
// where a consumer persists them asynchronously.
type ObservationPublisher interface {
	Publish(ctx context.Context, o *models.Observation) error
	PublishBatch(ctx context.Context, obs []models.Observation) error
	Close() error
}

// RecommendationPublisher emits reorder recommendations for downstream
// consumers (dashboard, purchasing systems).
type RecommendationPublisher interface {
	Publish(ctx context.Context, rec *models.Recommendation) error
	PublishBatch(ctx context.Context, recs []models.Recommendation) error
	Close() error
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordObservation(backend, productID string)
	RecordCandidate(family, result string)
	RecordSelectedScore(family string, rmse float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
