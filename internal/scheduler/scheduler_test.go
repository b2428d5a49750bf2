package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/forecast-collector/internal/weather"
)

type fakeUpdater struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
	total int32
}

func newFakeUpdater(failing ...string) *fakeUpdater {
	u := &fakeUpdater{calls: make(map[string]int), fail: make(map[string]bool)}
	for _, r := range failing {
		u.fail[r] = true
	}
	return u
}

func (u *fakeUpdater) Update(_ context.Context, region string) (weather.Result, error) {
	atomic.AddInt32(&u.total, 1)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls[region]++
	if u.fail[region] {
		return weather.Result{Region: region}, errors.New("fetch failed")
	}
	return weather.Result{Region: region, Fetched: 3}, nil
}

func TestRunOnce(t *testing.T) {
	u := newFakeUpdater("r2")
	s := New([]string{"r1", "r2", "r3"}, time.Hour, u)

	outcomes := s.RunOnce(context.Background())
	require.Len(t, outcomes, 3)

	assert.Equal(t, "r1", outcomes[0].Region)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, 3, outcomes[0].Result.Fetched)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)
	assert.Equal(t, map[string]int{"r1": 1, "r2": 1, "r3": 1}, u.calls)
}

func TestStartRunsImmediately(t *testing.T) {
	u := newFakeUpdater()
	s := New([]string{"r1", "r2"}, time.Hour, u)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&u.total) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartWithoutRegions(t *testing.T) {
	s := New(nil, time.Hour, newFakeUpdater())
	assert.NoError(t, s.Start())
	s.Stop()
}
