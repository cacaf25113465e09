// Package di provides dependency injection configuration for the FairyTale server.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/fairytaleapp/fairytale-server/internal/ai"
	"github.com/fairytaleapp/fairytale-server/internal/auth"
	"github.com/fairytaleapp/fairytale-server/internal/config"
	"github.com/fairytaleapp/fairytale-server/internal/di/providers"
	"github.com/fairytaleapp/fairytale-server/internal/service"
	"github.com/fairytaleapp/fairytale-server/internal/storage"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database and events
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// External clients
	do.Provide(injector, providers.ProvideAIClient)
	do.Provide(injector, providers.ProvideFileStorage)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideGoogleVerifier)

	// Business services
	do.Provide(injector, providers.ProvideStoryService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideRecommendationService)
	do.Provide(injector, providers.ProvideAdminService)

	// Workers
	do.Provide(injector, providers.ProvideOrchestrator)
	do.Provide(injector, providers.ProvideAggregator)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*slog.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*ai.Client](injector)
	_ = do.MustInvoke[storage.Client](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.StoryService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.RecommendationService](injector)
	_ = do.MustInvoke[*service.AdminService](injector)

	// Workers
	_ = do.MustInvoke[*providers.OrchestratorHandle](injector)
	_ = do.MustInvoke[*providers.AggregatorHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
