package usecase

import (
	"context"
	"testing"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/automl"
	"StockCast/internal/services/forecast"
)

type capturePublisher struct {
	published []*models.Recommendation
}

func (p *capturePublisher) Publish(_ context.Context, rec *models.Recommendation) error {
	p.published = append(p.published, rec)
	return nil
}

func (p *capturePublisher) PublishBatch(_ context.Context, recs []models.Recommendation) error {
	for i := range recs {
		p.published = append(p.published, &recs[i])
	}
	return nil
}

func (p *capturePublisher) Close() error { return nil }

// trainedFixture runs the full pipeline once so the forecast use case has a
// model and history to work from.
func trainedFixture(t *testing.T) (*ForecastUseCase, *pipelineFixture, *capturePublisher) {
	t.Helper()
	f := newPipelineFixture(t)

	_, err := f.pipeline.Run(context.Background(), models.PipelineRequest{
		Generate: models.GenerateRequest{Products: 2, Days: 90, Seed: 42, Start: "2024-01-01"},
		Search:   models.SearchRequest{MaxDurationSecs: 60, MaxCandidates: 3, Seed: 42, Metric: automl.MetricRMSE},
	})
	if err != nil {
		t.Fatalf("pipeline run: %v", err)
	}

	pub := &capturePublisher{}
	uc := NewForecastUseCase(
		automl.NewRegistry(),
		forecast.NewPredictor(),
		forecast.NewRecommender(),
		f.obs,
		f.modelStore,
		pub,
		f.cache,
		noopMetrics{},
		testLogger(t),
	)
	return uc, f, pub
}

func TestGetForecast(t *testing.T) {
	uc, _, _ := trainedFixture(t)
	ctx := context.Background()

	pid := "PROD_000"
	points, err := uc.GetForecast(ctx, models.ForecastRequest{ProductID: pid, Days: 14})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(points) != 14 {
		t.Fatalf("got %d points, want 14", len(points))
	}
	for i, p := range points {
		if p.ProductID != pid {
			t.Fatalf("point %d: product %s", i, p.ProductID)
		}
		if p.PredictedQuantity < 0 || p.IntervalLow < 0 {
			t.Fatalf("point %d: negative demand %v/%v", i, p.PredictedQuantity, p.IntervalLow)
		}
		if p.IntervalHigh < p.PredictedQuantity {
			t.Fatalf("point %d: high bound below point forecast", i)
		}
		if i > 0 && !points[i-1].Date.Before(p.Date) {
			t.Fatalf("point %d: dates not ascending", i)
		}
	}

	// second call is served from cache and must match
	again, err := uc.GetForecast(ctx, models.ForecastRequest{ProductID: pid, Days: 14})
	if err != nil {
		t.Fatalf("cached forecast: %v", err)
	}
	for i := range points {
		if points[i] != again[i] {
			t.Fatalf("cached point %d differs", i)
		}
	}
}

func TestGetForecastUnknownProduct(t *testing.T) {
	uc, _, _ := trainedFixture(t)
	_, err := uc.GetForecast(context.Background(), models.ForecastRequest{ProductID: "PROD_999", Days: 7})
	if err == nil {
		t.Fatalf("expected error for unknown product")
	}
}

func TestGetForecastNoModel(t *testing.T) {
	f := newPipelineFixture(t)
	if _, err := f.pipeline.Generate(context.Background(), models.GenerateRequest{
		Products: 1, Days: 30, Seed: 1, Start: "2024-01-01",
	}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	uc := NewForecastUseCase(
		automl.NewRegistry(),
		forecast.NewPredictor(),
		forecast.NewRecommender(),
		f.obs,
		f.modelStore,
		&capturePublisher{},
		f.cache,
		noopMetrics{},
		testLogger(t),
	)
	_, err := uc.GetForecast(context.Background(), models.ForecastRequest{ProductID: "PROD_000", Days: 7})
	if err == nil {
		t.Fatalf("expected error with no trained model")
	}
}

func TestGetRecommendation(t *testing.T) {
	uc, _, pub := trainedFixture(t)

	rec, err := uc.GetRecommendation(context.Background(), models.RecommendRequest{
		ProductID:    "PROD_000",
		Stock:        0,
		LeadTimeDays: 7,
		ServiceLevel: 0.95,
	})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rec.ProductID != "PROD_000" {
		t.Fatalf("recommendation for %s", rec.ProductID)
	}
	if rec.ReorderQuantity <= 0 {
		t.Fatalf("zero stock yielded reorder %d", rec.ReorderQuantity)
	}
	if rec.Urgency != models.UrgencyCritical {
		t.Fatalf("zero stock urgency %s, want critical", rec.Urgency)
	}

	if len(pub.published) != 1 || pub.published[0].ProductID != "PROD_000" {
		t.Fatalf("recommendation not published: %+v", pub.published)
	}
}

func TestGetRecommendations(t *testing.T) {
	uc, _, pub := trainedFixture(t)

	recs, err := uc.GetRecommendations(context.Background(), 7, 0.90)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want one per product", len(recs))
	}
	seen := map[string]bool{}
	for _, r := range recs {
		if r.ReorderQuantity < 0 {
			t.Fatalf("negative reorder for %s", r.ProductID)
		}
		seen[r.ProductID] = true
	}
	if len(seen) != 2 {
		t.Fatalf("duplicate product in recommendations")
	}
	if len(pub.published) != 2 {
		t.Fatalf("published %d recommendations, want 2", len(pub.published))
	}
}
