// Package di provides dependency injection configuration for the BookBuddy server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/auth"
	"github.com/bookbuddyapp/bookbuddy-server/internal/config"
	"github.com/bookbuddyapp/bookbuddy-server/internal/di/providers"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
	"github.com/bookbuddyapp/bookbuddy-server/internal/mail"
	"github.com/bookbuddyapp/bookbuddy-server/internal/media/images"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideAvatars)

	// External integrations
	do.Provide(injector, providers.ProvideOpenLibrary)
	do.Provide(injector, providers.ProvideMailer)

	// Auth layer
	do.Provide(injector, providers.ProvidePasswordHasher)
	do.Provide(injector, providers.ProvideResetTokens)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvidePasswordResetService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideReviewService)
	do.Provide(injector, providers.ProvideFavouriteService)
	do.Provide(injector, providers.ProvideHistoryService)
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideProfileService)
	do.Provide(injector, providers.ProvideSearchService)
	do.Provide(injector, providers.ProvideCleanupService)

	// Workers
	do.Provide(injector, providers.ProvideCleanupJob)
	do.Provide(injector, providers.ProvideCacheGCJob)

	// Server
	do.Provide(injector, providers.ProvideRenderer)
	do.Provide(injector, providers.ProvideWebServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.CacheHandle](injector)
	_ = do.MustInvoke[*images.Avatars](injector)
	_ = do.MustInvoke[*providers.OpenLibraryHandle](injector)
	_ = do.MustInvoke[mail.Sender](injector)
	_ = do.MustInvoke[*auth.ResetTokens](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.PasswordResetService](injector)
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.ProfileService](injector)
	_ = do.MustInvoke[*service.SearchService](injector)

	// Workers
	_ = do.MustInvoke[*providers.CleanupJob](injector)
	_ = do.MustInvoke[*providers.CacheGCJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Populate the search index if it is new
	providers.BackfillSearchIndex(injector)

	return nil
}
