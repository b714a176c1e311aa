package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/auth"
	"github.com/bookbuddyapp/bookbuddy-server/internal/config"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
)

// AuthKey wraps the master secret bytes.
type AuthKey []byte

// Derived key purposes. Changing one invalidates everything signed with it.
const (
	resetTokenPurpose  = "password-reset"
	flashCookiePurpose = "flash-cookie"
)

// ProvideAuthKey loads or generates the master secret.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	if err != nil {
		return nil, err
	}

	// Update config with the loaded key
	cfg.Auth.Key = key

	log.Info("Authentication key loaded",
		"session_duration", cfg.Auth.SessionDuration,
		"reset_token_ttl", cfg.Auth.ResetTokenTTL,
	)

	return AuthKey(key), nil
}

// ProvidePasswordHasher provides the Argon2id password hasher.
func ProvidePasswordHasher(i do.Injector) (*auth.PasswordHasher, error) {
	return auth.NewPasswordHasher(auth.DefaultParams), nil
}

// ProvideResetTokens provides the PASETO password reset token issuer.
func ProvideResetTokens(i do.Injector) (*auth.ResetTokens, error) {
	authKey := do.MustInvoke[AuthKey](i)

	key, err := auth.DeriveKey(authKey, resetTokenPurpose, 32)
	if err != nil {
		return nil, fmt.Errorf("derive reset token key: %w", err)
	}
	return auth.NewResetTokens(key)
}
