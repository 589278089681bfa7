package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
)

// MemoryObservationStore is an in-process ObservationStore for the memory
// backend and for tests. Reads return copies; callers never share slices
// with the store.
type MemoryObservationStore struct {
	mu     sync.RWMutex
	byProd map[string][]models.Observation
	order  []string
}

// NewMemoryObservationStore creates an empty in-memory store.
func NewMemoryObservationStore() *MemoryObservationStore {
	return &MemoryObservationStore{byProd: make(map[string][]models.Observation)}
}

var _ domrepo.ObservationStore = (*MemoryObservationStore)(nil)

func (s *MemoryObservationStore) Store(ctx context.Context, o *models.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(*o)
	return nil
}

func (s *MemoryObservationStore) StoreBatch(ctx context.Context, obs []models.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range obs {
		s.insert(o)
	}
	return nil
}

// insert keeps each product's slice sorted by date.
func (s *MemoryObservationStore) insert(o models.Observation) {
	g, ok := s.byProd[o.ProductID]
	if !ok {
		s.order = append(s.order, o.ProductID)
	}
	i := sort.Search(len(g), func(i int) bool { return g[i].Date.After(o.Date) })
	g = append(g, models.Observation{})
	copy(g[i+1:], g[i:])
	g[i] = o
	s.byProd[o.ProductID] = g
}

func (s *MemoryObservationStore) Query(ctx context.Context, productID string, from, to time.Time, limit int) ([]models.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Observation
	for _, o := range s.byProd[productID] {
		if o.Date.Before(from) || o.Date.After(to) {
			continue
		}
		out = append(out, o)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryObservationStore) LatestN(ctx context.Context, productID string, n int) ([]models.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g := s.byProd[productID]
	lo := len(g) - n
	if lo < 0 {
		lo = 0
	}
	out := make([]models.Observation, len(g)-lo)
	copy(out, g[lo:])
	return out, nil
}

func (s *MemoryObservationStore) ListProducts(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}

func (s *MemoryObservationStore) Health(ctx context.Context) error { return nil }

func (s *MemoryObservationStore) Close() error { return nil }
