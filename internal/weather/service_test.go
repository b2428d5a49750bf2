package weather_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/forecast-collector/internal/store"
	"github.com/i474232898/forecast-collector/internal/weather"
)

const region = "36.71.07.1003"

type fixtureProvider struct {
	doc   *weather.Document
	err   error
	calls int
}

func (p *fixtureProvider) Name() string { return "fixture" }

func (p *fixtureProvider) Fetch(_ context.Context, _ string) (*weather.Document, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.doc, nil
}

func newFixtureProvider(t *testing.T) *fixtureProvider {
	t.Helper()
	body, err := os.ReadFile("testdata/prakiraan_cuaca.json")
	require.NoError(t, err)
	doc, err := weather.DecodeDocument(body)
	require.NoError(t, err)
	return &fixtureProvider{doc: doc}
}

type corruptStore struct {
	*store.MemoryStore
}

func (corruptStore) Load(context.Context, string) ([]weather.Entry, error) {
	return nil, store.ErrCorrupt
}

type recordingSink struct {
	name    string
	err     error
	dataset []weather.Entry
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Consume(_ context.Context, _ string, dataset []weather.Entry) error {
	s.dataset = dataset
	return s.err
}

func clock() func() time.Time {
	now := time.Date(2024, 12, 3, 1, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func TestUpdateWritesNewDataset(t *testing.T) {
	st := store.NewMemoryStore()
	svc := weather.NewService(st, newFixtureProvider(t), weather.Options{Now: clock()})

	res, err := svc.Update(context.Background(), region)
	require.NoError(t, err)

	assert.True(t, res.Written)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 3, res.Stats.Inserted)
	assert.Equal(t, 1, st.Saves(region))

	saved, err := st.Load(context.Background(), region)
	require.NoError(t, err)
	assert.Equal(t, res.Dataset, saved)
}

func TestUpdateSkipsRewriteWhenNothingChanged(t *testing.T) {
	st := store.NewMemoryStore()
	svc := weather.NewService(st, newFixtureProvider(t), weather.Options{Now: clock()})
	ctx := context.Background()

	first, err := svc.Update(ctx, region)
	require.NoError(t, err)

	second, err := svc.Update(ctx, region)
	require.NoError(t, err)

	assert.False(t, second.Written)
	assert.False(t, second.Stats.Changed)
	assert.Equal(t, 3, second.Stats.Unchanged)
	assert.Equal(t, 1, st.Saves(region))
	// The stored rows keep the fetch time of the first run.
	assert.Equal(t, first.Dataset, second.Dataset)
}

func TestUpdateMigratesLegacyKeys(t *testing.T) {
	st := store.NewMemoryStore()
	svc := weather.NewService(st, newFixtureProvider(t), weather.Options{Now: clock()})
	ctx := context.Background()

	res, err := svc.Update(ctx, region)
	require.NoError(t, err)

	legacy := append([]weather.Entry(nil), res.Dataset...)
	for i := range legacy {
		legacy[i].DedupKey = legacy[i].LocalDatetime.Format(weather.LocalLayout) + "_legacy"
	}
	require.NoError(t, st.Save(ctx, region, legacy))

	res, err = svc.Update(ctx, region)
	require.NoError(t, err)
	assert.True(t, res.Written)

	saved, err := st.Load(ctx, region)
	require.NoError(t, err)
	require.Len(t, saved, 3)
	for _, e := range saved {
		assert.Equal(t, weather.DedupKey(e.LocalDatetime), e.DedupKey)
	}
}

func TestUpdateRespectsMaxRows(t *testing.T) {
	st := store.NewMemoryStore()
	svc := weather.NewService(st, newFixtureProvider(t), weather.Options{MaxRows: 2, Now: clock()})

	res, err := svc.Update(context.Background(), region)
	require.NoError(t, err)

	require.Len(t, res.Dataset, 2)
	assert.Equal(t, 1, res.Stats.Evicted)
	assert.Equal(t, 10, res.Dataset[0].Hour)
	assert.Equal(t, 13, res.Dataset[1].Hour)
}

func TestUpdateCorruptDatasetStartsFresh(t *testing.T) {
	st := corruptStore{store.NewMemoryStore()}
	svc := weather.NewService(st, newFixtureProvider(t), weather.Options{Now: clock()})

	res, err := svc.Update(context.Background(), region)
	require.NoError(t, err)
	assert.True(t, res.Written)
	assert.Equal(t, 0, res.Stats.Existing)
	assert.Len(t, res.Dataset, 3)
}

func TestUpdateFetchFailure(t *testing.T) {
	st := store.NewMemoryStore()
	provider := &fixtureProvider{err: weather.ErrFetch}
	svc := weather.NewService(st, provider, weather.Options{})

	_, err := svc.Update(context.Background(), region)
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrFetch))
	assert.Equal(t, 0, st.Saves(region))
}

func TestUpdateSinkFailureDoesNotFailRun(t *testing.T) {
	failing := &recordingSink{name: "features", err: errors.New("artifact missing")}
	ok := &recordingSink{name: "parquet"}
	svc := weather.NewService(store.NewMemoryStore(), newFixtureProvider(t), weather.Options{
		Sinks: []weather.Sink{failing, ok},
		Now:   clock(),
	})

	res, err := svc.Update(context.Background(), region)
	require.NoError(t, err)
	assert.Equal(t, res.Dataset, failing.dataset)
	assert.Equal(t, res.Dataset, ok.dataset)
}

func TestGetLatestAndRange(t *testing.T) {
	st := store.NewMemoryStore()
	svc := weather.NewService(st, newFixtureProvider(t), weather.Options{Now: clock()})
	ctx := context.Background()

	_, err := svc.GetLatest(ctx, region)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = svc.Update(ctx, region)
	require.NoError(t, err)

	latest, err := svc.GetLatest(ctx, region)
	require.NoError(t, err)
	assert.Equal(t, 13, latest.Hour)

	from := time.Date(2024, 12, 3, 7, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 3, 10, 0, 0, 0, time.UTC)
	rows, err := svc.GetRange(ctx, region, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 7, rows[0].Hour)
	assert.Equal(t, 10, rows[1].Hour)

	_, err = svc.GetRange(ctx, region, to.Add(24*time.Hour), to.Add(48*time.Hour))
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, weather.Summary{}, weather.Summarize(nil))

	svc := weather.NewService(store.NewMemoryStore(), newFixtureProvider(t), weather.Options{Now: clock()})
	res, err := svc.Update(context.Background(), region)
	require.NoError(t, err)

	sum := weather.Summarize(res.Dataset)
	assert.Equal(t, 3, sum.Rows)
	assert.Equal(t, "6h0m0s", sum.Span)
	assert.Equal(t, 7, sum.Oldest.Hour())
	assert.Equal(t, 13, sum.Newest.Hour())
	assert.Equal(t, "Hujan Ringan", sum.DominantWeather)
}
