package features

import (
	"errors"
	"testing"
	"time"

	"StockCast/internal/domain/models"
)

func obsSeq(pid string, start time.Time, quantities ...int) []models.Observation {
	out := make([]models.Observation, len(quantities))
	for i, q := range quantities {
		out[i] = models.Observation{
			Date:         start.AddDate(0, 0, i),
			ProductID:    pid,
			Category:     models.CategoryGrocery,
			QuantitySold: q,
			Price:        9.99,
		}
	}
	return out
}

func TestBuildEmpty(t *testing.T) {
	var insufficient *models.InsufficientDataError
	_, err := NewBuilder().Build(nil)
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %v, want InsufficientDataError", err)
	}
}

func TestBuildNoLookAhead(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := obsSeq("P1", start, 10, 20, 30, 40)

	rows, err := NewBuilder().Build(obs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// day 3's rolling mean uses days 1-2 only, never day 3 itself
	if got, want := rows[2].QtyAvg7, 15.0; got != want {
		t.Fatalf("day 3 avg7 = %v, want %v", got, want)
	}
	if got, want := rows[3].QtyAvg7, 20.0; got != want {
		t.Fatalf("day 4 avg7 = %v, want %v", got, want)
	}
}

func TestBuildWarmup(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := obsSeq("P1", start, 10, 20)

	rows, err := NewBuilder().Build(obs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if rows[0].QtyAvg7 != 0 || rows[0].QtyAvg30 != 0 {
		t.Fatalf("first day means = %v/%v, want warm-up default 0", rows[0].QtyAvg7, rows[0].QtyAvg30)
	}
	if rows[1].QtyAvg7 != 10 {
		t.Fatalf("second day avg7 = %v, want 10", rows[1].QtyAvg7)
	}
}

func TestBuildFullWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// 8 days of constant 10 except day 1 spike of 80
	obs := obsSeq("P1", start, 80, 10, 10, 10, 10, 10, 10, 10)

	rows, err := NewBuilder().Build(obs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// day 8 sees exactly days 1-7: (80 + 6*10) / 7 = 20
	if got, want := rows[7].QtyAvg7, 20.0; got != want {
		t.Fatalf("day 8 avg7 = %v, want %v", got, want)
	}
	// day 8's 30-day mean still truncates to the 7 available prior days
	if got, want := rows[7].QtyAvg30, 20.0; got != want {
		t.Fatalf("day 8 avg30 = %v, want %v", got, want)
	}
}

func TestBuildPerProductIsolation(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := append(obsSeq("P1", start, 100, 100), obsSeq("P2", start, 1, 1)...)

	rows, err := NewBuilder().Build(obs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, r := range rows {
		if r.ProductID == "P2" && r.QtyAvg7 > 1 {
			t.Fatalf("P2 rolling mean %v contaminated by P1", r.QtyAvg7)
		}
	}
}

func TestBuildSortsWithinProduct(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	obs := []models.Observation{
		{Date: d2, ProductID: "P1", QuantitySold: 20},
		{Date: d1, ProductID: "P1", QuantitySold: 10},
	}
	rows, err := NewBuilder().Build(obs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !rows[0].Date.Equal(d1) {
		t.Fatalf("rows not sorted by date: first is %s", rows[0].Date)
	}
	if rows[1].QtyAvg7 != 10 {
		t.Fatalf("avg after sort = %v, want 10", rows[1].QtyAvg7)
	}
}

func TestCalendarFlags(t *testing.T) {
	sat := time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)
	if !IsWeekend(sat) {
		t.Fatalf("saturday not flagged as weekend")
	}
	mon := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if IsWeekend(mon) {
		t.Fatalf("monday flagged as weekend")
	}
	if !IsHolidaySeason(sat) {
		t.Fatalf("november not flagged as holiday season")
	}
	if IsHolidaySeason(mon) {
		t.Fatalf("june flagged as holiday season")
	}
}

func TestVectorDim(t *testing.T) {
	r := models.FeatureRow{Price: 1, DayOfWeek: 2, Month: 3, QtyAvg7: 4, QtyAvg30: 5}
	if got := len(Vector(r)); got != VectorDim {
		t.Fatalf("vector length %d, want %d", got, VectorDim)
	}
}
