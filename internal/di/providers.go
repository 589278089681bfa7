package di

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"StockCast/internal/domain/repository"
	"StockCast/internal/handler/api"
	mid "StockCast/internal/middleware"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/service/possource"
	"StockCast/internal/services/automl"
	"StockCast/internal/services/features"
	"StockCast/internal/services/forecast"
	"StockCast/internal/services/generator"
	"StockCast/internal/usecase"
	"StockCast/pkg/cache"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            date Date, product_id String, category String,
            quantity_sold Int32, price Float64, stock_level Int32, on_promotion UInt8
        ) ENGINE=MergeTree ORDER BY (product_id, date)`, observationTable(cfg)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            date Date, product_id String, category String,
            quantity_sold Int32, price Float64, stock_level Int32, on_promotion UInt8,
            day_of_week Int8, month Int8, is_weekend UInt8,
            qty_avg_7 Float64, qty_avg_30 Float64
        ) ENGINE=MergeTree ORDER BY (product_id, date)`, featureTable(cfg)),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

func observationTable(cfg *config.Config) string {
	t := cfg.ClickHouse.ObservationTable
	if t == "" {
		t = "sales_observations"
	}
	return cfg.ClickHouse.Database + "." + t
}

func featureTable(cfg *config.Config) string {
	t := cfg.ClickHouse.FeatureTable
	if t == "" {
		t = "sales_features"
	}
	return cfg.ClickHouse.Database + "." + t
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates a layered (memory + Redis) cache when Redis is
// enabled, otherwise a pure in-memory cache.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	host, port := splitAddr(cfg.Redis.Addr)
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

func splitAddr(addr string) (string, int) {
	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideObservationStore picks the observation backend.
func ProvideObservationStore(chClient *pkgch.Client, cfg *config.Config) repository.ObservationStore {
	if cfg.Backend.Type == "memory" {
		return internalrepo.NewMemoryObservationStore()
	}
	return internalrepo.NewClickHouseObservationStore(chClient.DB(), observationTable(cfg))
}

// ProvideFeatureStore picks the feature backend.
func ProvideFeatureStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.FeatureStore {
	if cfg.Backend.Type == "memory" {
		return internalrepo.NewMemoryFeatureStore()
	}
	s := internalrepo.NewCHFeatureStore(chClient, featureTable(cfg))
	s.SetLogger(l)
	return s
}

// ProvideObservationPublisher creates the Kafka sales publisher.
func ProvideObservationPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ObservationPublisher {
	return internalrepo.NewKafkaObservationPublisher(producer, cfg.Kafka.SalesTopic)
}

// ProvideRecommendationPublisher creates the Kafka recommendation publisher.
func ProvideRecommendationPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RecommendationPublisher {
	return internalrepo.NewKafkaRecommendationPublisher(producer, cfg.Kafka.RecommendationsTopic)
}

// ProvideModelStore creates the file-backed model artifact store.
func ProvideModelStore(cfg *config.Config) (repository.ModelStore, error) {
	return internalrepo.NewFileModelStore(cfg.Models.Dir)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaSalesHandler registers the handler for the sales topic.
func ProvideKafkaSalesHandler(store repository.ObservationStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaSalesHandler {
	return usecase.NewKafkaSalesHandler(cfg.Kafka.SalesTopic, store, metrics)
}

// ProvidePOSStream creates the point-of-sale WebSocket stream.
func ProvidePOSStream(cfg *config.Config, l *applogger.Logger) repository.SalesStream {
	return possource.New(
		cfg.POS.APIKey,
		cfg.POS.WebSocketURL,
		cfg.POS.Stores,
		cfg.POS.ReconnectDelay,
		cfg.POS.PingInterval,
		l,
	)
}

// ProvideObservationProcessor creates the observation routing use case.
func ProvideObservationProcessor(
	pub repository.ObservationPublisher,
	store repository.ObservationStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(pub, store, metrics, cfg.Backend.Type)
}

// ProvideSalesCollector creates the POS ingest collector with its pipeline.
func ProvideSalesCollector(
	stream repository.SalesStream,
	processor *usecase.ObservationProcessor,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.SalesCollector {
	pipe := mid.NewIngestPipeline(processor, metrics,
		mid.WithMaxRPS(cfg.POS.MaxRPS),
		mid.WithBufferSize(cfg.POS.BufferSize),
	)
	return usecase.NewSalesCollector(stream, processor, metrics, pipe)
}

// ProvideGenerator creates the synthetic data generator, applying any
// configured overrides on top of the defaults.
func ProvideGenerator(cfg *config.Config) *generator.Generator {
	p := generator.DefaultParams()
	g := cfg.Generator
	if g.SeasonalAmplitude != nil {
		p.SeasonalAmplitude = *g.SeasonalAmplitude
	}
	if g.WeekendFactor != nil {
		p.WeekendFactor = *g.WeekendFactor
	}
	if g.HolidayFactor != nil {
		p.HolidayFactor = *g.HolidayFactor
	}
	if g.PromotionRate != nil {
		p.PromotionRate = *g.PromotionRate
	}
	if g.PromotionUplift != nil {
		p.PromotionUplift = *g.PromotionUplift
	}
	if g.NoiseLow != nil {
		p.NoiseLow = *g.NoiseLow
	}
	if g.NoiseHigh != nil {
		p.NoiseHigh = *g.NoiseHigh
	}
	if g.PromoDiscount != nil {
		p.PromoDiscount = *g.PromoDiscount
	}
	if g.StockMin != nil {
		p.StockMin = *g.StockMin
	}
	if g.StockMax != nil {
		p.StockMax = *g.StockMax
	}
	return generator.New(p)
}

// ProvideFeatureBuilder creates the feature builder.
func ProvideFeatureBuilder() *features.Builder {
	return features.NewBuilder()
}

// ProvideRegistry creates the candidate-model registry.
func ProvideRegistry() *automl.Registry {
	return automl.NewRegistry()
}

// ProvideOrchestrator creates the model-search orchestrator.
func ProvideOrchestrator(reg *automl.Registry, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *automl.Orchestrator {
	opts := []automl.OrchestratorOption{}
	if cfg.Search.Workers > 0 {
		opts = append(opts, automl.WithWorkers(cfg.Search.Workers))
	}
	if cfg.Search.Folds > 0 {
		opts = append(opts, automl.WithFolds(cfg.Search.Folds))
	}
	if cfg.Search.MaxCandidates > 0 {
		opts = append(opts, automl.WithMaxCandidates(cfg.Search.MaxCandidates))
	}
	return automl.NewOrchestrator(reg, m, l, opts...)
}

// ProvidePredictor creates the rolling predictor.
func ProvidePredictor() *forecast.Predictor {
	return forecast.NewPredictor()
}

// ProvideRecommender creates the reorder recommender.
func ProvideRecommender() *forecast.Recommender {
	return forecast.NewRecommender()
}

// ProvidePipelineUseCase creates the training pipeline use case.
func ProvidePipelineUseCase(
	gen *generator.Generator,
	builder *features.Builder,
	orch *automl.Orchestrator,
	obs repository.ObservationStore,
	feats repository.FeatureStore,
	modelStore repository.ModelStore,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PipelineUseCase {
	return usecase.NewPipelineUseCase(gen, builder, orch, obs, feats, modelStore, c, m, l)
}

// ProvideForecastUseCase creates the forecast/recommendation use case.
func ProvideForecastUseCase(
	reg *automl.Registry,
	predictor *forecast.Predictor,
	recommender *forecast.Recommender,
	obs repository.ObservationStore,
	modelStore repository.ModelStore,
	pub repository.RecommendationPublisher,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(reg, predictor, recommender, obs, modelStore, pub, c, m, l)
}

// ProvideHTTPHandler creates the Echo API handler.
func ProvideHTTPHandler(l *applogger.Logger, pipeline *usecase.PipelineUseCase, fc *usecase.ForecastUseCase) *api.ForecastEchoHandler {
	return api.NewForecastEchoHandler(l, pipeline, fc)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.SalesCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSalesHandler,
	chClient *pkgch.Client,
	handler *api.ForecastEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NewHookChain(
			pkgkafka.HookFuncs{
				Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
					ctx = pkgkafka.WithStartTime(ctx, time.Now())
					ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
					return ctx, km, data, nil
				},
				Err: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
					l.Warn("consumer message failed",
						applogger.String("topic", topic),
						applogger.Error(err))
				},
			},
		))
	}
	app := server.New(cfg, l, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	if collector != nil {
		app.ObsProc = collector.Processor()
	}
	return app
}
