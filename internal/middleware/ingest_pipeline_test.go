package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"StockCast/internal/domain/models"
)

type noopMetrics struct{}

func (noopMetrics) RecordObservation(string, string)    {}
func (noopMetrics) RecordCandidate(string, string)      {}
func (noopMetrics) RecordSelectedScore(string, float64) {}
func (noopMetrics) RecordError(string)                  {}
func (noopMetrics) RecordLatency(string, float64)       {}

type stubProc struct {
	mu   sync.Mutex
	seen []*models.Observation
	fail bool
}

func (s *stubProc) Process(_ context.Context, o *models.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("downstream unavailable")
	}
	s.seen = append(s.seen, o)
	return nil
}

func (s *stubProc) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func (s *stubProc) setFail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func obs(pid string) *models.Observation {
	return &models.Observation{
		Date:         time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ProductID:    pid,
		Category:     models.CategoryGrocery,
		QuantitySold: 3,
		Price:        2.50,
		StockLevel:   40,
	}
}

func TestPipelineForwards(t *testing.T) {
	proc := &stubProc{}
	p := NewIngestPipeline(proc, noopMetrics{})

	if err := p.Process(context.Background(), obs("P1")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream saw %d observations, want 1", proc.count())
	}
}

func TestPipelineRejectsInvalid(t *testing.T) {
	proc := &stubProc{}
	p := NewIngestPipeline(proc, noopMetrics{})
	ctx := context.Background()

	cases := []*models.Observation{
		nil,
		{Date: time.Now(), QuantitySold: 1},                        // no product
		{ProductID: "P1", QuantitySold: 1},                         // no date
		{ProductID: "P1", Date: time.Now(), QuantitySold: -1},      // negative qty
		{ProductID: "P1", Date: time.Now(), Price: -0.5},           // negative price
		{ProductID: "P1", Date: time.Now(), StockLevel: -2},        // negative stock
	}
	for i, o := range cases {
		if err := p.Process(ctx, o); err == nil {
			t.Fatalf("case %d accepted invalid observation", i)
		}
	}
	if proc.count() != 0 {
		t.Fatalf("invalid observations reached downstream")
	}
}

func TestPipelineThrottlesPerProduct(t *testing.T) {
	proc := &stubProc{}
	p := NewIngestPipeline(proc, noopMetrics{}, WithMaxRPS(1))
	ctx := context.Background()

	// burst on one product: only the first passes within the window
	for i := 0; i < 5; i++ {
		if err := p.Process(ctx, obs("P1")); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if proc.count() != 1 {
		t.Fatalf("throttle passed %d observations, want 1", proc.count())
	}

	// a different product has its own window
	if err := p.Process(ctx, obs("P2")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("second product throttled by the first")
	}
}

func TestPipelineBuffersAndFlushes(t *testing.T) {
	proc := &stubProc{fail: true}
	p := NewIngestPipeline(proc, noopMetrics{}, WithBufferSize(10))
	ctx := context.Background()

	p.Start(ctx)
	defer p.Stop()

	if err := p.Process(ctx, obs("P1")); err == nil {
		t.Fatalf("expected downstream error")
	}

	proc.setFail(false)
	deadline := time.Now().Add(3 * time.Second)
	for proc.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("buffered observation never flushed")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
