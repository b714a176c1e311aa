// Package cache provides a persistent TTL cache backed by BadgerDB.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("cache is closed")

// Cache stores JSON-encoded values with a time to live.
type Cache struct {
	db     *badger.DB
	prefix []byte
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) a cache in dir.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory cannot be empty")
	}
	return open(badger.DefaultOptions(dir), logger)
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory(logger *slog.Logger) (*Cache, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts = opts.
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithValueLogFileSize(16 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Cache{db: db, prefix: []byte("cache:"), logger: logger}, nil
}

func (c *Cache) key(k string) []byte {
	return append(append([]byte{}, c.prefix...), k...)
}

// Get decodes the value stored under key into dest.
// Reports false when the key is missing or expired.
func (c *Cache) Get(key string, dest any) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false, ErrClosed
	}

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for ttl. A zero ttl never expires.
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(c.key(key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Delete removes key. Deleting a missing key succeeds.
func (c *Cache) Delete(key string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(c.key(key))
	})
}

// GC reclaims value log space. Safe to call periodically.
func (c *Cache) GC() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	for {
		if err := c.db.RunValueLogGC(0.5); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
				c.logger.Warn("cache value log GC failed", "error", err)
			}
			return
		}
	}
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

// Shutdown implements do.Shutdownable.
func (c *Cache) Shutdown() error {
	return c.Close()
}
