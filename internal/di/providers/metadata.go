package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/config"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
	"github.com/bookbuddyapp/bookbuddy-server/internal/metadata/openlibrary"
)

// OpenLibraryHandle wraps the Open Library client with shutdown capability.
// Client is nil when lookups are disabled.
type OpenLibraryHandle struct {
	Client *openlibrary.Client
}

// Shutdown implements do.Shutdownable.
func (h *OpenLibraryHandle) Shutdown() error {
	if h.Client != nil {
		h.Client.Close()
	}
	return nil
}

// ProvideOpenLibrary provides the Open Library metadata client.
func ProvideOpenLibrary(i do.Injector) (*OpenLibraryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.OpenLibrary.Enabled {
		log.Info("Open Library lookups disabled by configuration")
		return &OpenLibraryHandle{}, nil
	}

	cacheHandle := do.MustInvoke[*CacheHandle](i)
	client := openlibrary.New(openlibrary.Config{
		BaseURL:   cfg.OpenLibrary.BaseURL,
		CoversURL: cfg.OpenLibrary.CoverURL,
		Timeout:   cfg.OpenLibrary.Timeout,
		CacheTTL:  cfg.OpenLibrary.CacheTTL,
	}, cacheHandle.Cache, log.Logger)

	log.Info("Open Library client initialized", "base_url", cfg.OpenLibrary.BaseURL)

	return &OpenLibraryHandle{Client: client}, nil
}
