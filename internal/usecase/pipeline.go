package usecase

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/internal/services/automl"
	"StockCast/internal/services/features"
	"StockCast/internal/services/generator"
	"StockCast/pkg/cache"
	applogger "StockCast/pkg/logger"
)

// CurrentModelName is the artifact key the pipeline writes and the forecast
// use case reads.
const CurrentModelName = "current"

const leaderboardCacheKey = "stockcast:leaderboard"

// PipelineUseCase runs the full training pipeline: generate observations,
// persist them, derive features, search for a model, persist the winner.
type PipelineUseCase struct {
	gen        *generator.Generator
	builder    *features.Builder
	orch       *automl.Orchestrator
	obs        drepo.ObservationStore
	feats      drepo.FeatureStore
	modelStore drepo.ModelStore
	cache      cache.Service
	metrics    drepo.Metrics
	logger     *applogger.Logger
}

func NewPipelineUseCase(
	gen *generator.Generator,
	builder *features.Builder,
	orch *automl.Orchestrator,
	obs drepo.ObservationStore,
	feats drepo.FeatureStore,
	modelStore drepo.ModelStore,
	c cache.Service,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *PipelineUseCase {
	return &PipelineUseCase{
		gen:        gen,
		builder:    builder,
		orch:       orch,
		obs:        obs,
		feats:      feats,
		modelStore: modelStore,
		cache:      c,
		metrics:    metrics,
		logger:     l,
	}
}

// Generate produces a synthetic observation set and persists it. Returns the
// number of rows written.
func (uc *PipelineUseCase) Generate(ctx context.Context, req models.GenerateRequest) (int, error) {
	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		return 0, &models.InvalidSpecError{Reason: fmt.Sprintf("bad start date %q", req.Start)}
	}
	end := start.AddDate(0, 0, req.Days-1)

	products := generator.DefaultProducts(req.Products)
	obs, err := uc.gen.Generate(products, start, end, req.Seed)
	if err != nil {
		return 0, err
	}
	if err := uc.obs.StoreBatch(ctx, obs); err != nil {
		return 0, fmt.Errorf("persist observations: %w", err)
	}
	uc.logger.Info("observations generated",
		applogger.Int("products", req.Products),
		applogger.Int("days", req.Days),
		applogger.Int64("seed", req.Seed),
		applogger.Int("rows", len(obs)))
	return len(obs), nil
}

// Train derives features from all stored observations, runs the model
// search, and persists the selected model. The full leaderboard is cached
// and returned.
func (uc *PipelineUseCase) Train(ctx context.Context, req models.SearchRequest) (*models.Leaderboard, error) {
	tStart := time.Now()

	products, err := uc.obs.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return nil, &models.InsufficientDataError{}
	}

	var all []models.Observation
	for _, pid := range products {
		hist, err := uc.obs.Query(ctx, pid, time.Time{}, farFuture(), 0)
		if err != nil {
			return nil, fmt.Errorf("load observations for %s: %w", pid, err)
		}
		all = append(all, hist...)
	}

	rows, err := uc.builder.Build(all)
	if err != nil {
		return nil, err
	}
	if err := uc.feats.Replace(ctx, rows); err != nil {
		return nil, fmt.Errorf("persist features: %w", err)
	}

	res, err := uc.orch.Search(ctx, rows, automl.Budget{
		MaxDuration:   time.Duration(req.MaxDurationSecs) * time.Second,
		MaxCandidates: req.MaxCandidates,
	}, req.Seed, req.Metric, automl.SearchFolds(req.Folds))
	if err != nil {
		return nil, err
	}

	artifact, err := res.Selected.Marshal()
	if err != nil {
		return nil, fmt.Errorf("serialize model: %w", err)
	}
	if err := uc.modelStore.Save(ctx, CurrentModelName, artifact); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	// retraining invalidates cached forecasts; flush before publishing the
	// new leaderboard so a broad pattern match cannot take it with it
	_ = uc.cache.DeleteByPattern(ctx, forecastCachePrefix+"*")
	_ = uc.cache.Set(ctx, leaderboardCacheKey, res.Leaderboard, 0)

	uc.metrics.RecordLatency("pipeline_train", time.Since(tStart).Seconds())
	uc.logger.Info("training pipeline complete",
		applogger.String("selected", res.Leaderboard.SelectedID),
		applogger.Int("features", len(rows)),
		applogger.Duration("elapsed", time.Since(tStart)))
	return &res.Leaderboard, nil
}

// Run executes Generate then Train in sequence.
func (uc *PipelineUseCase) Run(ctx context.Context, req models.PipelineRequest) (*models.Leaderboard, error) {
	if _, err := uc.Generate(ctx, req.Generate); err != nil {
		return nil, err
	}
	return uc.Train(ctx, req.Search)
}

// Leaderboard returns the most recent cached leaderboard, if any.
func (uc *PipelineUseCase) Leaderboard(ctx context.Context) (*models.Leaderboard, error) {
	var lb models.Leaderboard
	if err := uc.cache.Get(ctx, leaderboardCacheKey, &lb); err != nil {
		return nil, fmt.Errorf("no leaderboard available: %w", err)
	}
	return &lb, nil
}

func farFuture() time.Time {
	return time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
}
