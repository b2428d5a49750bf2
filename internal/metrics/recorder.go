// Package metrics exposes collection runs as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/forecast-collector/internal/weather"
)

// Run and sink outcomes used as label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// PrometheusRecorder implements weather.Recorder on a private registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	runDurationSeconds *prometheus.HistogramVec
	runStatusCounter   *prometheus.CounterVec
	fetchedRows        *prometheus.CounterVec
	insertedRows       *prometheus.CounterVec
	updatedRows        *prometheus.CounterVec
	evictedRows        *prometheus.CounterVec
	datasetRows        *prometheus.GaugeVec
	lastSuccess        *prometheus.GaugeVec
	sinkStatusCounter  *prometheus.CounterVec
}

var _ weather.Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	// Register Go standard metrics and process/OS metrics.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		runDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forecast_run_duration_seconds",
			Help:    "Duration of forecast collection runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"region", "status"}),
		runStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_runs_total",
			Help: "Total number of forecast collection runs by status.",
		}, []string{"region", "status"}),
		fetchedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_fetched_rows_total",
			Help: "Total normalized rows fetched from the forecast API.",
		}, []string{"region"}),
		insertedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_inserted_rows_total",
			Help: "Total rows added to the dataset.",
		}, []string{"region"}),
		updatedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_updated_rows_total",
			Help: "Total stored rows replaced by a newer forecast.",
		}, []string{"region"}),
		evictedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_evicted_rows_total",
			Help: "Total rows dropped by the retention window.",
		}, []string{"region"}),
		datasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "forecast_dataset_rows",
			Help: "Rows in the retained dataset after the last successful run.",
		}, []string{"region"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "forecast_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}, []string{"region"}),
		sinkStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_sink_runs_total",
			Help: "Total sink executions (features, parquet) by status.",
		}, []string{"region", "sink", "status"}),
	}

	registry.MustRegister(
		r.runDurationSeconds,
		r.runStatusCounter,
		r.fetchedRows,
		r.insertedRows,
		r.updatedRows,
		r.evictedRows,
		r.datasetRows,
		r.lastSuccess,
		r.sinkStatusCounter,
	)

	return r
}

// Registry returns the Prometheus registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveRun records the outcome of one Service.Update call.
func (r *PrometheusRecorder) ObserveRun(region string, res weather.Result, err error, elapsed time.Duration) {
	status := statusOf(err)
	r.runStatusCounter.WithLabelValues(region, status).Inc()
	r.runDurationSeconds.WithLabelValues(region, status).Observe(elapsed.Seconds())
	if err != nil {
		return
	}

	r.fetchedRows.WithLabelValues(region).Add(float64(res.Fetched))
	r.insertedRows.WithLabelValues(region).Add(float64(res.Stats.Inserted))
	r.updatedRows.WithLabelValues(region).Add(float64(res.Stats.Updated))
	r.evictedRows.WithLabelValues(region).Add(float64(res.Stats.Evicted))
	r.datasetRows.WithLabelValues(region).Set(float64(len(res.Dataset)))
	r.lastSuccess.WithLabelValues(region).SetToCurrentTime()
}

// ObserveSink records one sink execution.
func (r *PrometheusRecorder) ObserveSink(region, sink string, err error) {
	r.sinkStatusCounter.WithLabelValues(region, sink, statusOf(err)).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
