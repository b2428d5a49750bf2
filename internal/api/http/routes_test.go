package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/forecast-collector/internal/metrics"
	"github.com/i474232898/forecast-collector/internal/store"
	"github.com/i474232898/forecast-collector/internal/weather"
)

const region = "36.71.07.1003"

func seededApp(t *testing.T) *httptestApp {
	t.Helper()
	st := store.NewMemoryStore()

	start := time.Date(2024, 12, 3, 7, 0, 0, 0, time.UTC)
	var entries []weather.Entry
	for i := 0; i < 4; i++ {
		e := weather.Entry{
			Village:            "Karawaci Baru",
			LocalDatetime:      start.Add(time.Duration(3*i) * time.Hour),
			Temperature:        26 + float64(i),
			WeatherDescription: "Berawan",
		}
		weather.Derive(&e)
		entries = append(entries, e)
	}
	require.NoError(t, st.Save(context.Background(), region, entries))

	svc := weather.NewService(st, nil, weather.Options{})
	return &httptestApp{t: t, app: NewApp(svc, metrics.NewPrometheusRecorder().Handler())}
}

func TestHealth(t *testing.T) {
	a := seededApp(t)
	status, body := a.get("/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	a := seededApp(t)
	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "go_goroutines")
}

func TestLatest(t *testing.T) {
	a := seededApp(t)

	status, body := a.get("/api/v1/forecast/latest?region=" + region)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 29.0, body["temperature"])
	assert.Equal(t, "20241203160000", body["dedup_key"])

	status, _ = a.get("/api/v1/forecast/latest?region=99.99")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRegionValidation(t *testing.T) {
	a := seededApp(t)

	for _, path := range []string{
		"/api/v1/forecast/latest",
		"/api/v1/forecast/latest?region=../etc",
		"/api/v1/forecast/summary?region=abc",
	} {
		status, body := a.get(path)
		assert.Equal(t, http.StatusBadRequest, status, path)
		assert.Equal(t, true, body["error"], path)
	}
}

func TestHistory(t *testing.T) {
	a := seededApp(t)

	status, body := a.get("/api/v1/forecast/history?region=" + region +
		"&from=2024-12-03T10:00:00%2B07:00&to=2024-12-03%2013:00:00")
	require.Equal(t, http.StatusOK, status)
	entries, ok := body["entries"].([]interface{})
	require.True(t, ok)
	assert.Len(t, entries, 2)
	assert.Equal(t, "2024-12-03 10:00:00", body["from"])

	// Unix seconds are read as UTC wall clock.
	status, body = a.get("/api/v1/forecast/history?region=" + region + "&from=1733209200&to=1733220000")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["entries"], 2)
}

func TestHistoryValidation(t *testing.T) {
	a := seededApp(t)

	cases := []string{
		"/api/v1/forecast/history?region=" + region,
		"/api/v1/forecast/history?region=" + region + "&from=yesterday&to=today",
		"/api/v1/forecast/history?region=" + region + "&from=2024-12-04%2000:00:00&to=2024-12-03%2000:00:00",
	}
	for _, path := range cases {
		status, _ := a.get(path)
		assert.Equal(t, http.StatusBadRequest, status, path)
	}

	status, _ := a.get("/api/v1/forecast/history?region=" + region + "&from=2025-01-01%2000:00:00&to=2025-01-02%2000:00:00")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSummary(t *testing.T) {
	a := seededApp(t)

	status, body := a.get("/api/v1/forecast/summary?region=" + region)
	require.Equal(t, http.StatusOK, status)

	summary, ok := body["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 4.0, summary["rows"])
	assert.Equal(t, "9h0m0s", summary["span"])
	assert.Equal(t, 27.5, summary["avgTemperature"])
	assert.Equal(t, "Berawan", summary["dominantWeather"])
}

type httptestApp struct {
	t   *testing.T
	app *fiber.App
}

func (a *httptestApp) get(path string) (int, map[string]interface{}) {
	a.t.Helper()
	resp, err := a.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	if len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}
