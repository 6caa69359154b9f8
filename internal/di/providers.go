package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"CoinCast/internal/domain/repository"
	domsvc "CoinCast/internal/domain/service"
	"CoinCast/internal/handler/api"
	mid "CoinCast/internal/middleware"
	internalrepo "CoinCast/internal/repository"
	"CoinCast/internal/service/binance"
	"CoinCast/internal/service/ratelimit"
	"CoinCast/internal/service/yahoo"
	"CoinCast/internal/services/predict"
	"CoinCast/internal/services/sentiment"
	"CoinCast/internal/usecase"
	"CoinCast/pkg/cache"
	pkgch "CoinCast/pkg/clickhouse"
	"CoinCast/pkg/config"
	apphttp "CoinCast/pkg/http"
	pkgkafka "CoinCast/pkg/kafka"
	applogger "CoinCast/pkg/logger"
	"CoinCast/pkg/metrics"
	"CoinCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client when the clickhouse
// backend is selected, nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != "clickhouse" {
		return nil, nil
	}
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer when the kafka backend is
// selected, nil otherwise.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
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

// ProvideDatasetStorage creates ClickHouse dataset storage.
func ProvideDatasetStorage(chClient *pkgch.Client, cfg *config.Config) repository.DatasetStorage {
	if chClient == nil {
		return nil
	}
	return internalrepo.NewClickHouseDataset(chClient.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
}

// ProvideDatasetPublisher creates the Kafka dataset publisher.
func ProvideDatasetPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.DatasetPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaDataset(producer, cfg.Kafka.Topic)
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient(cfg *config.Config) *apphttp.Client {
	timeout := cfg.Binance.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return apphttp.NewClient(apphttp.WithTimeout(timeout))
}

// ProvideRateLimiter creates the outbound request limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideCandleSource creates the Binance REST candle source.
func ProvideCandleSource(cfg *config.Config, httpClient *apphttp.Client, limiter *ratelimit.Limiter) repository.CandleSource {
	return binance.New(cfg.Binance.BaseURL, httpClient, limiter)
}

// ProvideCrossAssetSource creates the Yahoo daily closes source.
func ProvideCrossAssetSource(cfg *config.Config, httpClient *apphttp.Client) repository.CrossAssetSource {
	return yahoo.New(cfg.CrossAsset.BaseURL, httpClient)
}

// ProvidePriceStream creates the Binance kline websocket stream.
func ProvidePriceStream(cfg *config.Config) repository.PriceStream {
	return binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbol,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideNewsSummarizer creates the RSS sentiment aggregator.
func ProvideNewsSummarizer(cfg *config.Config, logger *applogger.Logger) domsvc.NewsSummarizer {
	return sentiment.New(sentiment.Config{
		Feeds:          cfg.News.Feeds,
		Keywords:       cfg.News.Keywords,
		ItemsPerFeed:   cfg.News.ItemsPerFeed,
		InterFeedDelay: cfg.News.InterFeedDelay,
	}, logger)
}

// ProvideCache creates the news-summary cache: Redis when enabled, an
// in-process cache otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, err
	}
	// Memory in front of Redis so repeated snapshot builds within the TTL
	// never leave the process.
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideSnapshotConfig maps config onto snapshot construction settings.
func ProvideSnapshotConfig(cfg *config.Config) usecase.SnapshotConfig {
	return usecase.SnapshotConfig{
		Symbol:        cfg.Binance.Symbol,
		CrossSymbol:   cfg.CrossAsset.Symbol,
		CandleLimit:   cfg.Binance.CandleLimit,
		CrossLeadDays: cfg.CrossAsset.LeadDays,
		NewsCacheTTL:  cfg.News.CacheTTL,
	}
}

// ProvideSnapshotBuilder creates the request-scoped snapshot builder.
func ProvideSnapshotBuilder(
	snapCfg usecase.SnapshotConfig,
	candles repository.CandleSource,
	cross repository.CrossAssetSource,
	news domsvc.NewsSummarizer,
	cacheSvc cache.Service,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.SnapshotBuilder {
	return usecase.NewSnapshotBuilder(snapCfg, candles, cross, news, cacheSvc, m, logger)
}

// ProvideEngine loads the per-horizon model bundles and builds the engine.
func ProvideEngine(cfg *config.Config, m repository.Metrics, logger *applogger.Logger) *predict.Engine {
	bundles := predict.LoadBundles(cfg.Models.Dir, logger)
	return predict.NewEngine(bundles, m, logger)
}

// ProvidePredictor creates the prediction use case.
func ProvidePredictor(snapshots *usecase.SnapshotBuilder, engine *predict.Engine, logger *applogger.Logger) *usecase.Predictor {
	return usecase.NewPredictor(snapshots, engine, logger)
}

// ProvideDatasetProcessor creates the dataset sink processor.
func ProvideDatasetProcessor(
	pub repository.DatasetPublisher,
	store repository.DatasetStorage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.DatasetProcessor {
	return usecase.NewDatasetProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideLiveCollector creates the live kline collector with its pipeline.
func ProvideLiveCollector(
	cfg *config.Config,
	stream repository.PriceStream,
	snapshots *usecase.SnapshotBuilder,
	processor *usecase.DatasetProcessor,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.LiveCollector {
	pipe := mid.NewRealtimePipeline(processor, m,
		mid.WithMaxRPS(10),
		mid.WithBufferSize(2000),
	)
	return usecase.NewLiveCollector(cfg.Binance.Symbol, stream, snapshots, processor, pipe, m, logger)
}

// ProvideHistoricalCollector creates the REST backfill collector.
func ProvideHistoricalCollector(
	snapCfg usecase.SnapshotConfig,
	candles repository.CandleSource,
	cross repository.CrossAssetSource,
	news domsvc.NewsSummarizer,
	processor *usecase.DatasetProcessor,
	logger *applogger.Logger,
) *usecase.HistoricalCollector {
	return usecase.NewHistoricalCollector(snapCfg, candles, cross, news, processor, logger)
}

// ProvidePriceService creates the ticker service.
func ProvidePriceService(cfg *config.Config, candles repository.CandleSource) *usecase.PriceService {
	return usecase.NewPriceService(cfg.Binance.Symbol, candles)
}

// ProvidePredictHandler creates the HTTP handler.
func ProvidePredictHandler(
	logger *applogger.Logger,
	predictor *usecase.Predictor,
	price *usecase.PriceService,
	collector *usecase.LiveCollector,
	store repository.DatasetStorage,
) apphttp.Handler {
	h := api.NewPredictHandler(logger, predictor, price, collector)
	if store != nil {
		h.SetDatasetStorage(store)
	}
	return h
}

// kafkaLogPublisher adapts the Kafka producer to the logger's aggregated
// log sink.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (k kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return k.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.LiveCollector,
	chClient *pkgch.Client,
	handler apphttp.Handler,
	processor *usecase.DatasetProcessor,
	logger *applogger.Logger,
	producer *pkgkafka.Producer,
) *server.App {
	if producer != nil {
		logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".errors",
			Publisher:      kafkaLogPublisher{producer: producer},
		})
	}
	app := server.New(cfg, collector, chClient)
	app.SetHTTPHandler(handler)
	app.Proc = processor
	return app
}
