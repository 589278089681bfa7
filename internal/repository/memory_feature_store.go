package repository

import (
	"context"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
)

// MemoryFeatureStore is an in-process FeatureStore for the memory backend
// and for tests.
type MemoryFeatureStore struct {
	mu   sync.RWMutex
	rows []models.FeatureRow
}

// NewMemoryFeatureStore creates an empty in-memory feature store.
func NewMemoryFeatureStore() *MemoryFeatureStore {
	return &MemoryFeatureStore{}
}

var _ domrepo.FeatureStore = (*MemoryFeatureStore)(nil)

func (s *MemoryFeatureStore) Replace(ctx context.Context, rows []models.FeatureRow) error {
	cp := make([]models.FeatureRow, len(rows))
	copy(cp, rows)
	s.mu.Lock()
	s.rows = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryFeatureStore) Query(ctx context.Context, productID string, from, to time.Time) ([]models.FeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.FeatureRow
	for _, r := range s.rows {
		if r.ProductID != productID || r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *MemoryFeatureStore) Close() error { return nil }
