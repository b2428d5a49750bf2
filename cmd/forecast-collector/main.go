package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	httpapi "github.com/i474232898/forecast-collector/internal/api/http"
	"github.com/i474232898/forecast-collector/internal/config"
	"github.com/i474232898/forecast-collector/internal/features"
	"github.com/i474232898/forecast-collector/internal/log"
	"github.com/i474232898/forecast-collector/internal/metrics"
	"github.com/i474232898/forecast-collector/internal/scheduler"
	"github.com/i474232898/forecast-collector/internal/store"
	"github.com/i474232898/forecast-collector/internal/weather"
	"github.com/i474232898/forecast-collector/internal/weather/providers"
)

func main() {
	os.Exit(run())
}

func run() int {
	once := flag.Bool("once", true, "collect every configured region once and exit")
	daemon := flag.Bool("daemon", false, "collect on a schedule and serve the read API (overrides -once)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, cfgErr := config.Load(ctx)
	if err := log.Init(cfg != nil && cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Sync()
	if cfgErr != nil {
		log.Errorf("failed to load config: %v", cfgErr)
		return 1
	}

	datasets, closeStore, err := store.NewDatasetStore(ctx, cfg)
	if err != nil {
		log.Errorf("failed to create dataset store: %v", err)
		return 1
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warnf("closing dataset store: %v", err)
		}
	}()

	// Shared HTTP client for outbound forecast calls.
	client := resty.New().SetTimeout(cfg.HTTPTimeout)
	provider := providers.NewBMKGProvider(client, cfg.RegionURL, cfg.HTTPMaxRetries)

	recorder := metrics.NewPrometheusRecorder()

	// Sinks run after a successful merge; their failures are logged only.
	var sinks []weather.Sink
	if cfg.FeatureArtifactPath != "" {
		sinks = append(sinks, features.NewPreprocessor(cfg.FeatureArtifactPath, cfg.FeaturesPath))
	}
	if cfg.ParquetExport {
		sinks = append(sinks, store.NewParquetExporter(cfg.ParquetPath))
	}

	service := weather.NewService(datasets, provider, weather.Options{
		MaxRows:  cfg.MaxRows,
		Recorder: recorder,
		Sinks:    sinks,
	})
	sched := scheduler.New(cfg.Regions, cfg.FetchInterval, service)

	if *daemon {
		return runDaemon(ctx, cfg, sched, service, recorder)
	}
	if !*once {
		log.Warnf("neither -once nor -daemon requested; running once")
	}
	return runOnce(ctx, sched)
}

// runOnce collects every region a single time. Any fetch or merge failure
// makes the process exit non-zero.
func runOnce(ctx context.Context, sched *scheduler.Scheduler) int {
	code := 0
	for _, o := range sched.RunOnce(ctx) {
		if o.Err != nil {
			code = 1
			continue
		}
		logSummary(o)
	}
	return code
}

func logSummary(o scheduler.Outcome) {
	sum := weather.Summarize(o.Result.Dataset)
	if sum.Rows == 0 {
		log.Infow("run summary: dataset is empty", "region", o.Region)
		return
	}
	log.Infow("run summary",
		"region", o.Region,
		"rows", sum.Rows,
		"oldest", sum.Oldest.Format(weather.LocalLayout),
		"newest", sum.Newest.Format(weather.LocalLayout),
		"span", sum.Span,
		"written", o.Result.Written,
		"inserted", o.Result.Stats.Inserted,
		"updated", o.Result.Stats.Updated,
		"evicted", o.Result.Stats.Evicted,
	)
}

func runDaemon(
	ctx context.Context,
	cfg *config.AppConfig,
	sched *scheduler.Scheduler,
	service *weather.Service,
	recorder *metrics.PrometheusRecorder,
) int {
	if err := sched.Start(); err != nil {
		log.Errorf("failed to start scheduler: %v", err)
		return 1
	}
	defer sched.Stop()

	app := httpapi.NewApp(service, recorder.Handler())

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("fiber server stopped: %v", err)
		}
	}()
	log.Infow("daemon started", "port", cfg.Port, "regions", cfg.Regions, "interval", cfg.FetchInterval.String())

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
	return 0
}
