// Package providers contains dependency injection providers for the BookBuddy server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/config"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.App.IsDevelopment(),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting BookBuddy server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Storage.DataPath,
		"base_url", cfg.Server.BaseURL,
	)

	return log, nil
}
