package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookbuddyapp/bookbuddy-server/internal/config"
	"github.com/bookbuddyapp/bookbuddy-server/internal/logger"
	"github.com/bookbuddyapp/bookbuddy-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store. Book writes are mirrored into the
// search index.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	dbPath := cfg.Storage.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}
	db.SetSearchIndexer(indexHandle.SearchIndex)

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
