//go:build wireinject
// +build wireinject

package di

import (
	"VolaPulse/pkg/config"
	"VolaPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideBroker,
		ProvideTracker,

		// Domain services
		ProvideAnalyzer,
		ProvideRouter,
		ProvidePipeline,

		// Ops surface
		ProvideHealthHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
