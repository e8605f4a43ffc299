//go:build wireinject
// +build wireinject

package di

import (
	"CoeffRisk/pkg/config"
	"CoeffRisk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Domain
		ProvidePriceSource,
		ProvideRiskEngine,
		ProvideResultPublisher,
		ProvidePortfolioAnalysis,

		// Delivery
		ProvideKafkaRequestsHandler,
		ProvideAnalysisHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
