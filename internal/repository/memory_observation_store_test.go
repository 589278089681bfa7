package repository

import (
	"context"
	"testing"
	"time"

	"StockCast/internal/domain/models"
)

func storeObs(pid string, y int, m time.Month, d, qty int) models.Observation {
	return models.Observation{
		Date:         time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		ProductID:    pid,
		Category:     models.CategoryGrocery,
		QuantitySold: qty,
		Price:        3.25,
		StockLevel:   50,
	}
}

func TestMemoryStoreQueryRange(t *testing.T) {
	s := NewMemoryObservationStore()
	ctx := context.Background()

	batch := []models.Observation{
		storeObs("P1", 2024, 1, 1, 10),
		storeObs("P1", 2024, 1, 2, 11),
		storeObs("P1", 2024, 1, 3, 12),
		storeObs("P2", 2024, 1, 1, 99),
	}
	if err := s.StoreBatch(ctx, batch); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := s.Query(ctx, "P1",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].QuantitySold != 11 || got[1].QuantitySold != 12 {
		t.Fatalf("wrong rows or order: %+v", got)
	}
}

func TestMemoryStoreInsertKeepsDateOrder(t *testing.T) {
	s := NewMemoryObservationStore()
	ctx := context.Background()

	// out of order inserts
	for _, d := range []int{3, 1, 2} {
		o := storeObs("P1", 2024, 1, d, d)
		if err := s.Store(ctx, &o); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	got, err := s.Query(ctx, "P1", time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC), 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Date.Before(got[i].Date) {
			t.Fatalf("rows not date-ordered: %+v", got)
		}
	}
}

func TestMemoryStoreLatestN(t *testing.T) {
	s := NewMemoryObservationStore()
	ctx := context.Background()

	for d := 1; d <= 10; d++ {
		o := storeObs("P1", 2024, 1, d, d)
		if err := s.Store(ctx, &o); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	got, err := s.LatestN(ctx, "P1", 3)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	if got[0].QuantitySold != 8 || got[2].QuantitySold != 10 {
		t.Fatalf("wrong tail: %+v", got)
	}

	// more than stored returns everything
	all, _ := s.LatestN(ctx, "P1", 100)
	if len(all) != 10 {
		t.Fatalf("got %d rows, want 10", len(all))
	}
}

func TestMemoryStoreListProducts(t *testing.T) {
	s := NewMemoryObservationStore()
	ctx := context.Background()

	if err := s.StoreBatch(ctx, []models.Observation{
		storeObs("B", 2024, 1, 1, 1),
		storeObs("A", 2024, 1, 1, 1),
		storeObs("B", 2024, 1, 2, 1),
	}); err != nil {
		t.Fatalf("store: %v", err)
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
}

func TestMemoryStoreReadsAreCopies(t *testing.T) {
	s := NewMemoryObservationStore()
	ctx := context.Background()

	o := storeObs("P1", 2024, 1, 1, 5)
	if err := s.Store(ctx, &o); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, _ := s.LatestN(ctx, "P1", 1)
	got[0].QuantitySold = 999

	again, _ := s.LatestN(ctx, "P1", 1)
	if again[0].QuantitySold != 5 {
		t.Fatalf("caller mutation leaked into the store")
	}
}
