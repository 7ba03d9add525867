// Package di provides dependency injection configuration for the Heyrat server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/heyrat/heyrat-server/internal/auth"
	"github.com/heyrat/heyrat-server/internal/config"
	"github.com/heyrat/heyrat-server/internal/corpus"
	"github.com/heyrat/heyrat-server/internal/di/providers"
	"github.com/heyrat/heyrat-server/internal/logger"
	"github.com/heyrat/heyrat-server/internal/service"
	"github.com/heyrat/heyrat-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Corpus and search
	do.Provide(injector, providers.ProvideCorpus)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvidePasswordHasher)
	do.Provide(injector, providers.ProvideGoogle)

	// Business services
	do.Provide(injector, providers.ProvideIdentityService)
	do.Provide(injector, providers.ProvidePostService)
	do.Provide(injector, providers.ProvideFeedService)

	// Workers
	do.Provide(injector, providers.ProvideCorpusWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*corpus.Library](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*auth.PasswordHasher](injector)
	_ = do.MustInvoke[*providers.GoogleHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.IdentityService](injector)
	_ = do.MustInvoke[*service.PostService](injector)
	_ = do.MustInvoke[*service.FeedService](injector)

	// Workers
	if _, err := do.Invoke[*providers.CorpusWatcherHandle](injector); err != nil {
		return err
	}

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
