//go:build wireinject
// +build wireinject

package di

import (
	"StockCast/pkg/config"
	"StockCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideObservationStore,
		ProvideFeatureStore,
		ProvideObservationPublisher,
		ProvideRecommendationPublisher,
		ProvideModelStore,
		ProvidePOSStream,

		// Core services
		ProvideGenerator,
		ProvideFeatureBuilder,
		ProvideRegistry,
		ProvideOrchestrator,
		ProvidePredictor,
		ProvideRecommender,

		// Use cases
		ProvideObservationProcessor,
		ProvideSalesCollector,
		ProvideKafkaSalesHandler,
		ProvidePipelineUseCase,
		ProvideForecastUseCase,

		// HTTP + application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
