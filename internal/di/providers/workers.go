package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/config"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
	"github.com/bookbuddyapp/bookbuddy-server/internal/service"
)

// cacheGCInterval is how often the metadata cache reclaims disk space.
const cacheGCInterval = 30 * time.Minute

// CleanupJob runs periodic housekeeping.
type CleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *CleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideCleanupJob starts the housekeeping loop that expires sessions and
// reset tokens and purges deleted accounts.
func ProvideCleanupJob(i do.Injector) (*CleanupJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	cleanup := do.MustInvoke[*service.CleanupService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	go cleanup.Run(ctx, cfg.Auth.CleanupInterval)

	log.Info("Cleanup job started", "interval", cfg.Auth.CleanupInterval)

	return &CleanupJob{cancel: cancel}, nil
}

// CacheGCJob periodically compacts the metadata cache.
type CacheGCJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *CacheGCJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideCacheGCJob starts the cache compaction loop.
func ProvideCacheGCJob(i do.Injector) (*CacheGCJob, error) {
	cacheHandle := do.MustInvoke[*CacheHandle](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(cacheGCInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cacheHandle.GC()
			case <-ctx.Done():
				return
			}
		}
	}()

	return &CacheGCJob{cancel: cancel}, nil
}
