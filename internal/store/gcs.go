package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"

	"github.com/i474232898/forecast-collector/internal/weather"
)

// GCSStore keeps each region's dataset as a CSV object in a Cloud Storage
// bucket. Object writes only become visible when the writer is closed, so a
// failed Save leaves the previous object in place.
type GCSStore struct {
	client *storage.Client
	bucket string
	object PathFunc
}

// NewGCSStore creates a GCSStore writing objects named by object into bucket.
func NewGCSStore(client *storage.Client, bucket string, object PathFunc) *GCSStore {
	return &GCSStore{client: client, bucket: bucket, object: object}
}

func (s *GCSStore) Load(ctx context.Context, region string) ([]weather.Entry, error) {
	name := s.object(region)
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", s.bucket, name, err)
	}
	defer r.Close()

	entries, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, name, err)
	}
	return entries, nil
}

func (s *GCSStore) Save(ctx context.Context, region string, entries []weather.Entry) error {
	name := s.object(region)

	// Cancelling the context before Close aborts the upload.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "text/csv"
	if err := Encode(w, entries); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", s.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", s.bucket, name, err)
	}
	return nil
}
