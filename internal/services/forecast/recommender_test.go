package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockCast/internal/domain/models"
)

func flatForecast(days int, qty, width float64) []models.ForecastPoint {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.ForecastPoint, days)
	for i := range out {
		out[i] = models.ForecastPoint{
			ProductID:         "P1",
			Date:              start.AddDate(0, 0, i),
			PredictedQuantity: qty,
			IntervalLow:       math.Max(0, qty-width),
			IntervalHigh:      qty + width,
		}
	}
	return out
}

func TestRecommendZeroStock(t *testing.T) {
	rec, err := NewRecommender().Recommend(flatForecast(14, 10, 2), 0, 7, 0.95)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	// 7 days of demand at 10/day plus safety stock
	if rec.ReorderQuantity < 70 {
		t.Fatalf("reorder %d below lead-time demand", rec.ReorderQuantity)
	}
	if rec.Urgency != models.UrgencyCritical {
		t.Fatalf("urgency %s, want critical", rec.Urgency)
	}
	if rec.DaysOfCover != 0 {
		t.Fatalf("days of cover %v, want 0", rec.DaysOfCover)
	}
}

func TestRecommendOverstock(t *testing.T) {
	rec, err := NewRecommender().Recommend(flatForecast(14, 10, 2), 1000, 7, 0.95)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.ReorderQuantity != 0 {
		t.Fatalf("reorder %d, want 0 when stock dwarfs demand", rec.ReorderQuantity)
	}
	if rec.Urgency != models.UrgencyLow {
		t.Fatalf("urgency %s, want low", rec.Urgency)
	}
}

func TestRecommendUrgencyTiers(t *testing.T) {
	cases := []struct {
		stock int
		want  models.Urgency
	}{
		{5, models.UrgencyCritical}, // half a day of cover
		{25, models.UrgencyHigh},    // 2.5 days
		{50, models.UrgencyMedium},  // 5 days
		{100, models.UrgencyLow},    // 10 days
	}
	r := NewRecommender()
	for _, tc := range cases {
		rec, err := r.Recommend(flatForecast(14, 10, 0), tc.stock, 3, 0.90)
		if err != nil {
			t.Fatalf("stock %d: %v", tc.stock, err)
		}
		if rec.Urgency != tc.want {
			t.Fatalf("stock %d: urgency %s, want %s", tc.stock, rec.Urgency, tc.want)
		}
	}
}

func TestRecommendSafetyStockGrowsWithServiceLevel(t *testing.T) {
	r := NewRecommender()
	low, err := r.Recommend(flatForecast(14, 10, 4), 0, 7, 0.80)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	high, err := r.Recommend(flatForecast(14, 10, 4), 0, 7, 0.99)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if high.ReorderQuantity <= low.ReorderQuantity {
		t.Fatalf("99%% level reorder %d not above 80%% level %d",
			high.ReorderQuantity, low.ReorderQuantity)
	}
}

func TestRecommendLeadTimeClamped(t *testing.T) {
	// lead time longer than the forecast falls back to the available horizon
	rec, err := NewRecommender().Recommend(flatForecast(5, 10, 0), 0, 30, 0.50)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.ReorderQuantity != 50 {
		t.Fatalf("reorder %d, want 50 over a 5-day horizon", rec.ReorderQuantity)
	}
}

func TestRecommendZeroDemand(t *testing.T) {
	rec, err := NewRecommender().Recommend(flatForecast(7, 0, 0), 10, 3, 0.90)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !math.IsInf(rec.DaysOfCover, 1) {
		t.Fatalf("days of cover %v, want +Inf with zero demand", rec.DaysOfCover)
	}
	if rec.Urgency != models.UrgencyLow {
		t.Fatalf("urgency %s, want low", rec.Urgency)
	}
}

func TestRecommendEmptyForecast(t *testing.T) {
	var insufficient *models.InsufficientDataError
	_, err := NewRecommender().Recommend(nil, 10, 7, 0.95)
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %v, want InsufficientDataError", err)
	}
}

func TestZValue(t *testing.T) {
	cases := []struct {
		level float64
		want  float64
	}{
		{0.50, 0.0},
		{0.90, 1.2816},
		{0.95, 1.6449},
		{0.99, 2.3263},
		{0.10, 0.0},    // clamps low
		{0.999, 2.3263}, // clamps high
	}
	for _, tc := range cases {
		if got := zValue(tc.level); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("zValue(%v) = %v, want %v", tc.level, got, tc.want)
		}
	}
	// interpolation stays between the bracketing table entries
	mid := zValue(0.85)
	if mid <= 0.8416 || mid >= 1.2816 {
		t.Fatalf("zValue(0.85) = %v outside (0.8416, 1.2816)", mid)
	}
}
