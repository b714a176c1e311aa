// Package images validates, resizes and stores uploaded avatar images.
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoImage is returned by Storage.Get when nothing is stored under an ID.
var ErrNoImage = errors.New("image not found")

// Storage keeps one JPEG per ID inside a single directory. All access goes
// through an os.Root, so an ID can never name a file outside it.
type Storage struct {
	dir  string
	root *os.Root
	mu   sync.RWMutex
}

// NewStorage opens (creating if needed) the directory base/name.
func NewStorage(base, name string) (*Storage, error) {
	if base == "" || name == "" {
		return nil, errors.New("image storage needs a base path and a directory name")
	}

	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}
	return &Storage{dir: dir, root: root}, nil
}

// Dir returns the directory images are stored in.
func (s *Storage) Dir() string { return s.dir }

// Save replaces the image stored under id. Readers see either the old or
// the new file, never a partial one.
func (s *Storage) Save(id string, jpeg []byte) error {
	name, err := fileName(id)
	if err != nil {
		return err
	}
	if len(jpeg) == 0 {
		return errors.New("refusing to store an empty image")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	partial := name + ".part"
	if err := s.root.WriteFile(partial, jpeg, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", partial, err)
	}
	if err := s.root.Rename(partial, name); err != nil {
		_ = s.root.Remove(partial)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Get returns the image stored under id, or ErrNoImage.
func (s *Storage) Get(id string) ([]byte, error) {
	name, err := fileName(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.root.ReadFile(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoImage, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Delete removes the image stored under id. A missing image is not an error.
func (s *Storage) Delete(id string) error {
	name, err := fileName(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}

// Close releases the directory handle.
func (s *Storage) Close() error {
	return s.root.Close()
}

func fileName(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid image ID %q", id)
	}
	return id + ".jpg", nil
}
