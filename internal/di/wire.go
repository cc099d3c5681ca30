//go:build wireinject
// +build wireinject

package di

import (
	"RegimeScan/pkg/config"
	"RegimeScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideScanner,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideCacheService,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvidePriceSource,
		ProvideBarStore,
		ProvideChangeStore,
		ProvidePublisher,

		// Use cases
		ProvideScanUseCase,
		ProvideLiveMonitor,
		ProvideChangesHandler,
		ProvideQueueBundle,

		// HTTP
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
