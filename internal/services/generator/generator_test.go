package generator

import (
	"errors"
	"testing"
	"time"

	"StockCast/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateDeterministic(t *testing.T) {
	g := New(DefaultParams())
	products := DefaultProducts(2)
	from, to := day(2024, 1, 1), day(2024, 1, 10)

	a, err := g.Generate(products, from, to, 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := g.Generate(products, from, to, 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(a) != 20 {
		t.Fatalf("expected 20 rows, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("row %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateDifferentSeeds(t *testing.T) {
	g := New(DefaultParams())
	products := DefaultProducts(1)
	from, to := day(2024, 1, 1), day(2024, 3, 31)

	a, _ := g.Generate(products, from, to, 1)
	b, _ := g.Generate(products, from, to, 2)

	same := 0
	for i := range a {
		if a[i].QuantitySold == b[i].QuantitySold {
			same++
		}
	}
	if same == len(a) {
		t.Fatalf("different seeds produced identical quantities")
	}
}

func TestGenerateQuantityFloor(t *testing.T) {
	g := New(DefaultParams())
	products := []models.ProductSpec{{ID: "P1", Category: models.CategoryGrocery, BasePrice: 10, BaseDemand: 0.01}}

	obs, err := g.Generate(products, day(2024, 5, 1), day(2024, 5, 31), 7)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, o := range obs {
		if o.QuantitySold < 1 {
			t.Fatalf("quantity below floor: %d on %s", o.QuantitySold, o.Date)
		}
	}
}

func TestGenerateRowOrder(t *testing.T) {
	g := New(DefaultParams())
	products := DefaultProducts(3)
	obs, err := g.Generate(products, day(2024, 1, 1), day(2024, 1, 5), 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	idx := 0
	for _, p := range products {
		for d := 0; d < 5; d++ {
			o := obs[idx]
			if o.ProductID != p.ID {
				t.Fatalf("row %d: product %s, want %s", idx, o.ProductID, p.ID)
			}
			if want := day(2024, 1, 1+d); !o.Date.Equal(want) {
				t.Fatalf("row %d: date %s, want %s", idx, o.Date, want)
			}
			idx++
		}
	}
}

func TestGenerateHolidayUplift(t *testing.T) {
	g := New(DefaultParams())
	products := []models.ProductSpec{{ID: "P1", Category: models.CategoryToys, BasePrice: 20, BaseDemand: 50}}

	summer, err := g.Generate(products, day(2024, 6, 1), day(2024, 6, 30), 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	december, err := g.Generate(products, day(2024, 12, 1), day(2024, 12, 30), 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	avg := func(obs []models.Observation) float64 {
		var sum float64
		for _, o := range obs {
			sum += float64(o.QuantitySold)
		}
		return sum / float64(len(obs))
	}
	if avg(december) <= avg(summer) {
		t.Fatalf("december avg %.1f not above june avg %.1f", avg(december), avg(summer))
	}
}

func TestGenerateExplicitZeroParams(t *testing.T) {
	p := DefaultParams()
	p.PromotionRate = 0
	g := New(p)

	obs, err := g.Generate(DefaultProducts(3), day(2024, 1, 1), day(2024, 12, 31), 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, o := range obs {
		if o.OnPromotion {
			t.Fatalf("promotion generated with rate zero: %s %s", o.ProductID, o.Date)
		}
	}
}

func TestGenerateRepairsInvertedBounds(t *testing.T) {
	p := DefaultParams()
	p.StockMin, p.StockMax = 300, 20
	g := New(p)

	obs, err := g.Generate(DefaultProducts(1), day(2024, 1, 1), day(2024, 3, 31), 42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, o := range obs {
		if o.StockLevel < 20 || o.StockLevel > 300 {
			t.Fatalf("stock %d outside bounds", o.StockLevel)
		}
	}
}

func TestGenerateInvalidSpec(t *testing.T) {
	g := New(DefaultParams())
	var invalid *models.InvalidSpecError

	_, err := g.Generate(nil, day(2024, 1, 1), day(2024, 1, 2), 1)
	if !errors.As(err, &invalid) {
		t.Fatalf("empty products: got %v", err)
	}

	_, err = g.Generate(DefaultProducts(1), day(2024, 1, 2), day(2024, 1, 1), 1)
	if !errors.As(err, &invalid) {
		t.Fatalf("inverted range: got %v", err)
	}

	bad := []models.ProductSpec{{ID: "", BasePrice: 5}}
	_, err = g.Generate(bad, day(2024, 1, 1), day(2024, 1, 2), 1)
	if !errors.As(err, &invalid) {
		t.Fatalf("empty id: got %v", err)
	}

	bad = []models.ProductSpec{{ID: "P1", BasePrice: 0}}
	_, err = g.Generate(bad, day(2024, 1, 1), day(2024, 1, 2), 1)
	if !errors.As(err, &invalid) {
		t.Fatalf("zero price: got %v", err)
	}
}
