package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/auth"
	"github.com/bookbuddyapp/bookbuddy-server/internal/config"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
	"github.com/bookbuddyapp/bookbuddy-server/internal/mail"
	"github.com/bookbuddyapp/bookbuddy-server/internal/media/images"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
	"github.com/bookbuddyapp/bookbuddy-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, cfg.Auth.SessionDuration, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	hasher := do.MustInvoke[*auth.PasswordHasher](i)
	sessions := do.MustInvoke[*service.SessionService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	avatars := do.MustInvoke[*images.Avatars](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, hasher, sessions, validator, avatars, log.Logger), nil
}

// ProvidePasswordResetService provides the password reset service.
func ProvidePasswordResetService(i do.Injector) (*service.PasswordResetService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	hasher := do.MustInvoke[*auth.PasswordHasher](i)
	tokens := do.MustInvoke[*auth.ResetTokens](i)
	sessions := do.MustInvoke[*service.SessionService](i)
	mailer := do.MustInvoke[mail.Sender](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPasswordResetService(
		storeHandle.Store,
		hasher,
		tokens,
		sessions,
		mailer,
		validator,
		cfg.Auth.ResetTokenTTL,
		cfg.Server.BaseURL,
		log.Logger,
	), nil
}

// ProvideBookService provides the book catalogue service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	olHandle := do.MustInvoke[*OpenLibraryHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	// A nil *Client inside the interface would not compare equal to nil.
	var lookup service.MetadataLookup
	if olHandle.Client != nil {
		lookup = olHandle.Client
	}

	return service.NewBookService(storeHandle.Store, lookup, validator, log.Logger), nil
}

// ProvideReviewService provides the review service.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReviewService(storeHandle.Store, validator, log.Logger), nil
}

// ProvideFavouriteService provides the favourites service.
func ProvideFavouriteService(i do.Injector) (*service.FavouriteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFavouriteService(storeHandle.Store, log.Logger), nil
}

// ProvideHistoryService provides the viewing history service.
func ProvideHistoryService(i do.Injector) (*service.HistoryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewHistoryService(storeHandle.Store, log.Logger), nil
}

// ProvideSettingsService provides the user settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSettingsService(storeHandle.Store, validator, log.Logger), nil
}

// ProvideProfileService provides the profile service.
func ProvideProfileService(i do.Injector) (*service.ProfileService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	avatars := do.MustInvoke[*images.Avatars](i)
	settings := do.MustInvoke[*service.SettingsService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProfileService(storeHandle.Store, avatars, settings, validator, log.Logger), nil
}

// ProvideCleanupService provides the housekeeping service.
func ProvideCleanupService(i do.Injector) (*service.CleanupService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessions := do.MustInvoke[*service.SessionService](i)
	resets := do.MustInvoke[*service.PasswordResetService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCleanupService(storeHandle.Store, sessions, resets, cfg.Auth.DeletedUserRetain, log.Logger), nil
}
