//go:build wireinject
// +build wireinject

package di

import (
	"RugDetector/pkg/config"
	"RugDetector/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Foundation
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideAnalysisStore,
		ProvidePublisher,

		// Domain services
		ProvideExtractor,
		ProvideClassifier,
		ProvideProver,

		// Use cases
		ProvideAnalyzer,
		ProvideScoreHandler,
		ProvideMonitor,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
