package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/forecast-collector/internal/log"
	"github.com/i474232898/forecast-collector/internal/weather"
)

// Updater runs one collection for a region.
type Updater interface {
	Update(ctx context.Context, region string) (weather.Result, error)
}

// Outcome is the result of one region's collection.
type Outcome struct {
	Region string
	Result weather.Result
	Err    error
}

// Scheduler periodically collects forecasts for the configured regions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	updater   Updater
	regions   []string
	interval  time.Duration
}

// New creates a new Scheduler.
func New(regions []string, interval time.Duration, updater Updater) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	// A slow run delays the next one instead of overlapping it.
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		updater:   updater,
		regions:   regions,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run starts immediately.
func (s *Scheduler) Start() error {
	if len(s.regions) == 0 {
		log.Warnf("scheduler: no regions configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		log.Infow("scheduler: running forecast collection", "regions", len(s.regions))

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()

		failed := 0
		for _, o := range s.RunOnce(ctx) {
			if o.Err != nil {
				failed++
			}
		}
		log.Infow("scheduler: completed forecast collection", "regions", len(s.regions), "failed", failed)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce collects every region concurrently and returns the outcomes in
// region order. Each region owns its dataset, so runs never share a file.
func (s *Scheduler) RunOnce(ctx context.Context) []Outcome {
	outcomes := make([]Outcome, len(s.regions))

	var wg sync.WaitGroup
	for i, region := range s.regions {
		i, region := i, region
		wg.Add(1)
		go func() {
			defer wg.Done()

			res, err := s.updater.Update(ctx, region)
			if err != nil {
				log.Errorw("scheduler: collection failed", "region", region, "error", err)
			}
			outcomes[i] = Outcome{Region: region, Result: res, Err: err}
		}()
	}
	wg.Wait()
	return outcomes
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
