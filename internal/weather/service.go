package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/forecast-collector/internal/log"
)

// Options tune a Service. Zero values fall back to defaults.
type Options struct {
	MaxRows  int
	Recorder Recorder
	Sinks    []Sink
	Now      func() time.Time
}

// Service runs the fetch, normalize and merge pipeline against a dataset store.
type Service struct {
	store      Store
	provider   Provider
	normalizer *Normalizer
	maxRows    int
	recorder   Recorder
	sinks      []Sink
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, opts Options) *Service {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	n := NewNormalizer()
	if opts.Now != nil {
		n.Now = opts.Now
	}
	return &Service{
		store:      store,
		provider:   provider,
		normalizer: n,
		maxRows:    opts.MaxRows,
		recorder:   opts.Recorder,
		sinks:      opts.Sinks,
	}
}

// Update fetches the current forecast for region, merges it into the
// persisted dataset and runs the configured sinks. The dataset is only
// rewritten when the merge changed something.
func (s *Service) Update(ctx context.Context, region string) (Result, error) {
	res := Result{Region: region, RunID: uuid.NewString()}
	logger := log.With("region", region, "run_id", res.RunID)

	start := time.Now()
	err := s.update(ctx, region, &res, logger)
	s.recorder.ObserveRun(region, res, err, time.Since(start))
	if err != nil {
		return res, err
	}

	for _, sink := range s.sinks {
		sinkErr := sink.Consume(ctx, region, res.Dataset)
		s.recorder.ObserveSink(region, sink.Name(), sinkErr)
		if sinkErr != nil {
			logger.Errorw("sink failed; continuing", "sink", sink.Name(), "error", sinkErr)
		}
	}
	return res, nil
}

func (s *Service) update(ctx context.Context, region string, res *Result, logger *zap.SugaredLogger) error {
	if s.provider == nil {
		return fmt.Errorf("no forecast provider configured")
	}

	doc, err := s.provider.Fetch(ctx, region)
	if err != nil {
		return fmt.Errorf("provider %s: %w", s.provider.Name(), err)
	}

	incoming, err := s.normalizer.Normalize(Flatten(doc))
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	res.Fetched = len(incoming)
	logger.Infow("forecast fetched", "provider", s.provider.Name(), "entries", len(incoming))

	existing, err := s.store.Load(ctx, region)
	switch {
	case errors.Is(err, ErrNotFound):
		existing = nil
	case errors.Is(err, ErrCorrupt):
		logger.Warnw("existing dataset unreadable; starting without history", "error", err)
		existing = nil
	case err != nil:
		return fmt.Errorf("load dataset: %w", err)
	}

	migrated := EnsureKeys(existing)
	if migrated > 0 {
		logger.Infow("recomputed dedup keys", "rows", migrated)
	}

	merged, stats := Merge(existing, incoming, s.maxRows)
	res.Stats = stats
	res.Dataset = merged

	if !stats.Changed && migrated == 0 {
		logger.Infow("no new data to add; dataset left untouched", "rows", len(merged))
		res.Dataset = existing
		return nil
	}

	if err := s.store.Save(ctx, region, merged); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	res.Written = true

	logger.Infow("dataset updated",
		"rows", len(merged),
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"evicted", stats.Evicted,
	)
	return nil
}

// GetLatest returns the most recent persisted entry for a region.
func (s *Service) GetLatest(ctx context.Context, region string) (Entry, error) {
	entries, err := s.store.Load(ctx, region)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[len(entries)-1], nil
}

// GetDataset returns the whole retained dataset for a region.
func (s *Service) GetDataset(ctx context.Context, region string) ([]Entry, error) {
	entries, err := s.store.Load(ctx, region)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, nil
}

// GetRange returns persisted entries whose local time lies in [from, to].
func (s *Service) GetRange(ctx context.Context, region string, from, to time.Time) ([]Entry, error) {
	entries, err := s.store.Load(ctx, region)
	if err != nil {
		return nil, err
	}

	var result []Entry
	for _, e := range entries {
		lt := e.LocalDatetime
		if !lt.Before(from) && !lt.After(to) {
			result = append(result, e)
		}
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
