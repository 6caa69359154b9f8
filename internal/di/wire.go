//go:build wireinject
// +build wireinject

package di

import (
	"CoinCast/internal/usecase"
	"CoinCast/pkg/config"
	"CoinCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideHTTPClient,
		ProvideRateLimiter,
		ProvideCache,

		// Repositories and sources
		ProvideDatasetStorage,
		ProvideDatasetPublisher,
		ProvideCandleSource,
		ProvideCrossAssetSource,
		ProvidePriceStream,
		ProvideNewsSummarizer,

		// Use cases
		ProvideSnapshotConfig,
		ProvideSnapshotBuilder,
		ProvideEngine,
		ProvidePredictor,
		ProvideDatasetProcessor,
		ProvideLiveCollector,
		ProvidePriceService,

		// HTTP surface and application server
		ProvidePredictHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeBackfill wires the one-shot historical collection path.
func InitializeBackfill(cfg *config.Config) (*usecase.HistoricalCollector, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideHTTPClient,
		ProvideRateLimiter,

		ProvideDatasetStorage,
		ProvideDatasetPublisher,
		ProvideCandleSource,
		ProvideCrossAssetSource,
		ProvideNewsSummarizer,

		ProvideSnapshotConfig,
		ProvideDatasetProcessor,
		ProvideHistoricalCollector,
	)
	return &usecase.HistoricalCollector{}, nil
}
