package store

import (
	"context"
	"fmt"
	"path/filepath"

	"cloud.google.com/go/storage"

	"github.com/i474232898/forecast-collector/internal/config"
	"github.com/i474232898/forecast-collector/internal/weather"
)

// NewDatasetStore builds the dataset store selected by cfg.StorageBackend.
// The returned close function releases backend clients.
func NewDatasetStore(ctx context.Context, cfg *config.AppConfig) (weather.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageBackend {
	case config.BackendLocal, "":
		return NewFileStore(cfg.DatasetPath), noop, nil
	case config.BackendMemory:
		return NewMemoryStore(), noop, nil
	case config.BackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create storage client: %w", err)
		}
		object := func(region string) string {
			return filepath.ToSlash(cfg.DatasetPath(region))
		}
		return NewGCSStore(client, cfg.GCSBucket, object), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
