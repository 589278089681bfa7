package forecast

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/automl"
	"StockCast/internal/services/features"
)

// constantModel builds a trained model that always predicts level for P1 by
// round-tripping an exp-smoothing artifact through the registry.
func constantModel(t *testing.T, schema string, level, score float64) *automl.TrainedModel {
	t.Helper()
	state, _ := json.Marshal(map[string]any{
		"alpha":       0.5,
		"levels":      map[string]float64{"P1": level},
		"global_mean": level,
	})
	blob, _ := json.Marshal(automl.Artifact{
		SchemaVersion: schema,
		CandidateID:   "exp_smoothing[alpha=0.50]",
		Family:        automl.FamilyExpSmoothing,
		Params:        "alpha=0.50",
		Score:         score,
		Metric:        automl.MetricRMSE,
		TrainedAt:     time.Now().UTC(),
		State:         state,
	})
	m, err := automl.NewRegistry().Unmarshal(blob)
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	return m
}

func history(days int) []models.Observation {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Observation, days)
	for i := range out {
		out[i] = models.Observation{
			Date:         start.AddDate(0, 0, i),
			ProductID:    "P1",
			Category:     models.CategoryGrocery,
			QuantitySold: 12,
			Price:        4.99,
			StockLevel:   100,
		}
	}
	return out
}

func TestPredictHorizon(t *testing.T) {
	m := constantModel(t, features.SchemaVersion, 12, 2)
	pts, err := NewPredictor().Predict(m, history(30), 14)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(pts) != 14 {
		t.Fatalf("got %d points, want 14", len(pts))
	}

	last := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	for i, p := range pts {
		if want := last.AddDate(0, 0, i+1); !p.Date.Equal(want) {
			t.Fatalf("point %d: date %s, want %s", i, p.Date, want)
		}
		if p.ProductID != "P1" {
			t.Fatalf("point %d: product %s", i, p.ProductID)
		}
		if p.PredictedQuantity != 12 {
			t.Fatalf("point %d: predicted %v, want 12", i, p.PredictedQuantity)
		}
	}
}

func TestPredictIntervalBounds(t *testing.T) {
	// score larger than the level: the low bound would go negative
	m := constantModel(t, features.SchemaVersion, 2, 10)
	pts, err := NewPredictor().Predict(m, history(10), 5)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	for i, p := range pts {
		if p.IntervalLow < 0 {
			t.Fatalf("point %d: low bound %v below zero", i, p.IntervalLow)
		}
		if p.IntervalHigh < p.PredictedQuantity {
			t.Fatalf("point %d: high %v below point %v", i, p.IntervalHigh, p.PredictedQuantity)
		}
		if p.IntervalLow > p.PredictedQuantity {
			t.Fatalf("point %d: low %v above point %v", i, p.IntervalLow, p.PredictedQuantity)
		}
	}
}

func TestPredictStaleSchema(t *testing.T) {
	m := constantModel(t, "v1-legacy", 12, 2)
	_, err := NewPredictor().Predict(m, history(10), 7)

	var stale *models.StaleModelError
	if !errors.As(err, &stale) {
		t.Fatalf("got %v, want StaleModelError", err)
	}
	if stale.ModelSchema != "v1-legacy" || stale.CurrentSchema != features.SchemaVersion {
		t.Fatalf("error schemas %q/%q", stale.ModelSchema, stale.CurrentSchema)
	}
}

func TestPredictEmptyHistory(t *testing.T) {
	m := constantModel(t, features.SchemaVersion, 12, 2)
	_, err := NewPredictor().Predict(m, nil, 7)

	var insufficient *models.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %v, want InsufficientDataError", err)
	}
}

func TestPredictZeroHorizon(t *testing.T) {
	m := constantModel(t, features.SchemaVersion, 12, 2)
	pts, err := NewPredictor().Predict(m, history(10), 0)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(pts) != 0 {
		t.Fatalf("got %d points for zero horizon", len(pts))
	}
}

func TestPredictUnsortedHistory(t *testing.T) {
	h := history(10)
	h[0], h[9] = h[9], h[0]

	m := constantModel(t, features.SchemaVersion, 12, 2)
	pts, err := NewPredictor().Predict(m, h, 3)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	// horizon still starts the day after the true latest observation
	want := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	if !pts[0].Date.Equal(want) {
		t.Fatalf("first point %s, want %s", pts[0].Date, want)
	}
}

func TestTrailingMean(t *testing.T) {
	vals := []float64{10, 20, 30, 40}
	if got := trailingMean(vals, 2); got != 35 {
		t.Fatalf("window 2 mean = %v, want 35", got)
	}
	if got := trailingMean(vals, 10); got != 25 {
		t.Fatalf("truncated mean = %v, want 25", got)
	}
	if got := trailingMean(nil, 7); got != 0 {
		t.Fatalf("empty mean = %v, want 0", got)
	}
}
