//go:build wireinject
// +build wireinject

package di

import (
	"coincast/pkg/config"
	"coincast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideHTTPClient,

		// Aggregation core
		ProvideCache,
		ProvideSnapshotStore,
		ProvideRegistry,
		ProvideAggregator,
		ProvideRefresher,

		// Edges
		ProvideChainGateway,
		ProvideHub,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
