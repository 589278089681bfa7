package usecase

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/internal/services/automl"
	"StockCast/internal/services/forecast"
	"StockCast/pkg/cache"
	applogger "StockCast/pkg/logger"
)

const (
	forecastCachePrefix = "stockcast:forecast:"
	forecastCacheTTL    = 5 * time.Minute

	// how much history seeds the rolling features at prediction time
	historyWindow = 60
)

// ForecastUseCase serves forecasts and reorder recommendations from the
// currently selected model.
type ForecastUseCase struct {
	reg         *automl.Registry
	predictor   *forecast.Predictor
	recommender *forecast.Recommender
	obs         drepo.ObservationStore
	modelStore  drepo.ModelStore
	pub         drepo.RecommendationPublisher
	cache       cache.Service
	metrics     drepo.Metrics
	logger      *applogger.Logger
}

func NewForecastUseCase(
	reg *automl.Registry,
	predictor *forecast.Predictor,
	recommender *forecast.Recommender,
	obs drepo.ObservationStore,
	modelStore drepo.ModelStore,
	pub drepo.RecommendationPublisher,
	c cache.Service,
	metrics drepo.Metrics,
	l *applogger.Logger,
) *ForecastUseCase {
	return &ForecastUseCase{
		reg:         reg,
		predictor:   predictor,
		recommender: recommender,
		obs:         obs,
		modelStore:  modelStore,
		pub:         pub,
		cache:       c,
		metrics:     metrics,
		logger:      l,
	}
}

// GetForecast predicts demand for one product over the requested horizon.
// Results are cached briefly; retraining flushes the cache.
func (uc *ForecastUseCase) GetForecast(ctx context.Context, req models.ForecastRequest) ([]models.ForecastPoint, error) {
	key := fmt.Sprintf("%s%s:%d", forecastCachePrefix, req.ProductID, req.Days)
	var cached []models.ForecastPoint
	if err := uc.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	start := time.Now()
	model, err := uc.loadModel(ctx)
	if err != nil {
		return nil, err
	}

	history, err := uc.obs.LatestN(ctx, req.ProductID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(history) == 0 {
		return nil, &models.InsufficientDataError{ProductID: req.ProductID}
	}

	points, err := uc.predictor.Predict(model, history, req.Days)
	if err != nil {
		return nil, err
	}

	_ = uc.cache.Set(ctx, key, points, forecastCacheTTL)
	uc.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	return points, nil
}

// GetRecommendation derives a reorder recommendation for one product and
// publishes it for downstream consumers.
func (uc *ForecastUseCase) GetRecommendation(ctx context.Context, req models.RecommendRequest) (*models.Recommendation, error) {
	points, err := uc.GetForecast(ctx, models.ForecastRequest{
		ProductID: req.ProductID,
		Days:      req.LeadTimeDays,
	})
	if err != nil {
		return nil, err
	}

	rec, err := uc.recommender.Recommend(points, req.Stock, req.LeadTimeDays, req.ServiceLevel)
	if err != nil {
		return nil, err
	}

	if uc.pub != nil {
		if err := uc.pub.Publish(ctx, rec); err != nil {
			// recommendation is still served; delivery failure is logged
			uc.metrics.RecordError("recommendation_publish")
			uc.logger.Warn("recommendation publish failed",
				applogger.String("product", rec.ProductID),
				applogger.Error(err))
		}
	}
	return rec, nil
}

// GetRecommendations derives recommendations for every known product using
// current stock levels from the latest observations.
func (uc *ForecastUseCase) GetRecommendations(ctx context.Context, leadTimeDays int, serviceLevel float64) ([]models.Recommendation, error) {
	products, err := uc.obs.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return nil, &models.InsufficientDataError{}
	}

	out := make([]models.Recommendation, 0, len(products))
	for _, pid := range products {
		latest, err := uc.obs.LatestN(ctx, pid, 1)
		if err != nil || len(latest) == 0 {
			continue
		}
		rec, err := uc.GetRecommendation(ctx, models.RecommendRequest{
			ProductID:    pid,
			Stock:        latest[len(latest)-1].StockLevel,
			LeadTimeDays: leadTimeDays,
			ServiceLevel: serviceLevel,
		})
		if err != nil {
			uc.logger.Warn("recommendation failed",
				applogger.String("product", pid),
				applogger.Error(err))
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (uc *ForecastUseCase) loadModel(ctx context.Context) (*automl.TrainedModel, error) {
	blob, err := uc.modelStore.Load(ctx, CurrentModelName)
	if err != nil {
		return nil, fmt.Errorf("no trained model: %w", err)
	}
	return uc.reg.Unmarshal(blob)
}
