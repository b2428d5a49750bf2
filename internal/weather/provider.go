package weather

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no dataset (or no matching row) exists for a region.
	ErrNotFound = errors.New("no forecast data for region")
	// ErrCorrupt is returned when a persisted dataset exists but cannot be decoded.
	ErrCorrupt = errors.New("forecast dataset is corrupt")
)

// Provider abstracts a forecast source (e.g. BMKG public forecast API).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, region string) (*Document, error)
}

// Store is the contract every dataset backend (local file, GCS, memory) satisfies.
// Load returns ErrNotFound when nothing was persisted yet and ErrCorrupt when
// the stored data cannot be decoded. Save replaces the dataset atomically.
type Store interface {
	Load(ctx context.Context, region string) ([]Entry, error)
	Save(ctx context.Context, region string, entries []Entry) error
}

// Sink consumes the merged dataset after a successful update, e.g. the
// feature preprocessor or a parquet export. Sink failures never fail the run.
type Sink interface {
	Name() string
	Consume(ctx context.Context, region string, dataset []Entry) error
}

// Recorder observes completed runs.
type Recorder interface {
	ObserveRun(region string, res Result, err error, elapsed time.Duration)
	ObserveSink(region, sink string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRun(string, Result, error, time.Duration) {}
func (nopRecorder) ObserveSink(string, string, error)              {}
