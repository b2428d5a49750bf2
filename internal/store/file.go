package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/i474232898/forecast-collector/internal/weather"
)

// PathFunc maps a region code to the location of its dataset.
type PathFunc func(region string) string

// FileStore persists each region's dataset as a CSV file on local disk.
type FileStore struct {
	path PathFunc
}

// NewFileStore creates a FileStore that resolves dataset files through path.
func NewFileStore(path PathFunc) *FileStore {
	return &FileStore{path: path}
}

// Load reads the dataset for region.
func (s *FileStore) Load(_ context.Context, region string) ([]weather.Entry, error) {
	name := s.path(region)
	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	entries, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return entries, nil
}

// Save replaces the dataset for region. Readers see either the old or the
// new file, never a partial one.
func (s *FileStore) Save(_ context.Context, region string, entries []weather.Entry) error {
	return WriteAtomic(s.path(region), func(w io.Writer) error {
		return Encode(w, entries)
	})
}

// WriteAtomic creates the parent directory of name, writes through write into
// a temporary file in that directory and renames it over name once the
// content is synced.
func WriteAtomic(name string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err = os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
