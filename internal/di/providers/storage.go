package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/cache"
	"github.com/bookbuddyapp/bookbuddy-server/internal/config"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
	"github.com/bookbuddyapp/bookbuddy-server/internal/media/images"
)

// ProvideAvatars provides avatar image storage.
func ProvideAvatars(i do.Injector) (*images.Avatars, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.Storage.DataPath, "avatars")
	if err != nil {
		return nil, fmt.Errorf("avatar storage: %w", err)
	}

	log.Info("Avatar storage initialized")

	return images.NewAvatars(storage, log.Logger), nil
}

// CacheHandle wraps the Badger response cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Cache.Shutdown()
}

// ProvideCache provides the on-disk cache for metadata lookups.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	c, err := cache.Open(filepath.Join(cfg.Storage.DataPath, "cache"), log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &CacheHandle{Cache: c}, nil
}
