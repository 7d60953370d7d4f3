package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-data-explorer/internal/domain"
	"github.com/couchcryptid/quake-data-explorer/internal/observability"
)

const testTTL = time.Hour

// --- mock source ---

type fakeSource struct {
	mu       sync.Mutex
	key      string
	raw      domain.RawTable
	loadErr  error
	identErr error

	// gate, when set, blocks Load until closed.
	gate    chan struct{}
	started chan struct{}
	loads   atomic.Int32
}

func newFakeSource() *fakeSource {
	return &fakeSource{key: "v1", raw: sampleRaw()}
}

func (s *fakeSource) Identity() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key, s.identErr
}

func (s *fakeSource) Load(_ context.Context) (domain.RawTable, error) {
	s.loads.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw, s.loadErr
}

func (s *fakeSource) set(fn func(s *fakeSource)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func sampleRaw() domain.RawTable {
	return domain.RawTable{
		Header: []string{"magnitude", "depth", "latitude", "longitude", "tsunami", "Year", "Month", "sig"},
		Rows: [][]string{
			{"7.2", "30", "35", "139", "1", "2011", "3", "1200"},
			{"6.0", "500", "0", "10", "0", "2015", "7", "554"},
			{"8.0", "10", "-20", "-70", "1", "2020", "1", "1500"},
		},
	}
}

func newTestCatalog(src Source, clock clockwork.Clock, opts ...Option) *Catalog {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(src, testTTL, clock, logger, observability.NewMetricsForTesting(), opts...)
}

// --- cache behaviour ---

func TestCatalog_HitWithinTTL(t *testing.T) {
	src := newFakeSource()
	clock := clockwork.NewFakeClock()
	c := newTestCatalog(src, clock)

	assert.False(t, c.Ready())

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Table.Len())
	assert.True(t, c.Ready())

	clock.Advance(testTTL - time.Second)
	second, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), src.loads.Load())
}

func TestCatalog_RebuildAfterExpiry(t *testing.T) {
	src := newFakeSource()
	clock := clockwork.NewFakeClock()
	c := newTestCatalog(src, clock)

	first, err := c.Get(context.Background())
	require.NoError(t, err)

	clock.Advance(testTTL)
	second, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Generation+1, second.Generation)
	assert.Equal(t, clock.Now(), second.PreparedAt)
	assert.Equal(t, int32(2), src.loads.Load())
}

func TestCatalog_RebuildOnSourceChange(t *testing.T) {
	src := newFakeSource()
	c := newTestCatalog(src, clockwork.NewFakeClock())

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	src.set(func(s *fakeSource) {
		s.key = "v2"
		s.raw.Rows = s.raw.Rows[:1]
	})

	snap, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", snap.Key)
	assert.Equal(t, 1, snap.Table.Len())
	assert.Equal(t, int32(2), src.loads.Load())
}

func TestCatalog_ConcurrentGetRebuildsOnce(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	src.started = make(chan struct{}, 16)
	c := newTestCatalog(src, clockwork.NewFakeClock())

	const callers = 10
	snaps := make([]*Snapshot, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := c.Get(context.Background())
			assert.NoError(t, err)
			snaps[i] = snap
		}()
	}

	<-src.started
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.loads.Load())
	for _, snap := range snaps {
		assert.Same(t, snaps[0], snap)
	}
}

func TestCatalog_FailedRebuildAfterExpiry(t *testing.T) {
	src := newFakeSource()
	clock := clockwork.NewFakeClock()
	c := newTestCatalog(src, clock)

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	unavailable := &domain.SourceUnavailableError{Path: "quakes.csv", Err: errors.New("permission denied")}
	src.set(func(s *fakeSource) { s.loadErr = unavailable })
	clock.Advance(testTTL + time.Minute)

	snap, err := c.Get(context.Background())
	assert.Nil(t, snap, "expired table must not be served")
	var srcErr *domain.SourceUnavailableError
	require.ErrorAs(t, err, &srcErr)

	src.set(func(s *fakeSource) { s.loadErr = nil })
	snap, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Table.Len())
}

func TestCatalog_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *fakeSource)
		check  func(t *testing.T, err error)
	}{
		{
			name: "identity failure",
			mutate: func(s *fakeSource) {
				s.identErr = &domain.SourceUnavailableError{Path: "gone.csv", Err: errors.New("no such file")}
			},
			check: func(t *testing.T, err error) {
				var target *domain.SourceUnavailableError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name: "schema failure",
			mutate: func(s *fakeSource) {
				s.raw = domain.RawTable{Header: []string{"magnitude"}}
			},
			check: func(t *testing.T, err error) {
				var target *domain.SchemaError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name: "preparation failure",
			mutate: func(s *fakeSource) {
				s.raw.Rows = [][]string{{"x", "30", "35", "139", "1", "2011", "3", "1200"}}
			},
			check: func(t *testing.T, err error) {
				var target *domain.PreparationError
				assert.ErrorAs(t, err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.set(tt.mutate)
			c := newTestCatalog(src, clockwork.NewFakeClock())

			snap, err := c.Get(context.Background())
			require.Error(t, err)
			assert.Nil(t, snap)
			assert.False(t, c.Ready())
			tt.check(t, err)
		})
	}
}

func TestCatalog_ReloadIgnoresTTL(t *testing.T) {
	src := newFakeSource()
	c := newTestCatalog(src, clockwork.NewFakeClock())

	first, err := c.Get(context.Background())
	require.NoError(t, err)

	reloaded, err := c.Reload(context.Background())
	require.NoError(t, err)

	assert.Greater(t, reloaded.Generation, first.Generation)
	assert.Equal(t, int32(2), src.loads.Load())

	current, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, reloaded, current)
}

func TestCatalog_CanceledWaiter(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	src.started = make(chan struct{}, 1)
	c := newTestCatalog(src, clockwork.NewFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx)
		done <- err
	}()

	<-src.started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// The shared build still completes for later callers.
	close(src.gate)
	snap, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Table.Len())
	assert.Equal(t, int32(1), src.loads.Load())
}

func TestCatalog_RebuildHook(t *testing.T) {
	src := newFakeSource()
	clock := clockwork.NewFakeClock()

	var (
		mu   sync.Mutex
		seen []*Snapshot
	)
	hook := func(_ context.Context, snap *Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, snap)
	}
	c := newTestCatalog(src, clock, WithRebuildHook(hook))

	snap, err := c.Get(context.Background())
	require.NoError(t, err)
	_, err = c.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Wait(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Same(t, snap, seen[0])
}

func TestCatalog_ReloadJoinsRunningRebuild(t *testing.T) {
	src := newFakeSource()
	src.gate = make(chan struct{})
	src.started = make(chan struct{}, 4)
	c := newTestCatalog(src, clockwork.NewFakeClock())

	getDone := make(chan *Snapshot, 1)
	go func() {
		snap, err := c.Get(context.Background())
		assert.NoError(t, err)
		getDone <- snap
	}()
	<-src.started

	reloadDone := make(chan *Snapshot, 1)
	go func() {
		snap, err := c.Reload(context.Background())
		assert.NoError(t, err)
		reloadDone <- snap
	}()

	// Let Reload reach the running build before it finishes.
	time.Sleep(50 * time.Millisecond)
	close(src.gate)

	fromGet, fromReload := <-getDone, <-reloadDone
	assert.Same(t, fromGet, fromReload)
	assert.Equal(t, int32(1), src.loads.Load())
}

func TestCatalog_HooksObserveShutdown(t *testing.T) {
	src := newFakeSource()
	lifecycle, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	var stopped atomic.Bool
	hook := func(ctx context.Context, _ *Snapshot) {
		select {
		case <-ctx.Done():
			stopped.Store(true)
		case <-time.After(5 * time.Second):
		}
	}
	c := newTestCatalog(src, clockwork.NewFakeClock(), WithContext(lifecycle), WithRebuildHook(hook))

	reqCtx, cancelReq := context.WithCancel(context.Background())
	_, err := c.Get(reqCtx)
	require.NoError(t, err)
	cancelReq()

	shutdown()
	waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Wait(waitCtx))
	assert.True(t, stopped.Load())
}

func TestCatalog_WaitHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	hook := func(_ context.Context, _ *Snapshot) { <-release }
	c := newTestCatalog(newFakeSource(), clockwork.NewFakeClock(), WithRebuildHook(hook))

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)
}

func TestCatalog_FilterCacheMinimumSize(t *testing.T) {
	c := newTestCatalog(newFakeSource(), clockwork.NewFakeClock(), WithFilterCacheSize(0))

	_, _, err := c.Filter(context.Background(), domain.FilterConfig{Tsunami: domain.TsunamiOnly})
	require.NoError(t, err)
	_, _, err = c.Filter(context.Background(), domain.FilterConfig{Tsunami: domain.TsunamiNone})
	require.NoError(t, err)
	assert.Equal(t, 1, c.results.Len())
}

// --- filtered results ---

func TestCatalog_FilterMemoizesPerSnapshot(t *testing.T) {
	src := newFakeSource()
	c := newTestCatalog(src, clockwork.NewFakeClock(), WithFilterCacheSize(4))
	cfg := domain.FilterConfig{Magnitude: &domain.Range[float64]{Min: 7.0, Max: 9.0}}

	_, first, err := c.Filter(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Len())

	_, second, err := c.Filter(context.Background(), cfg)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = c.Reload(context.Background())
	require.NoError(t, err)

	_, third, err := c.Filter(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2, third.Len())
}

func TestCatalog_FilterRejectsInvalidConfigBeforeLoading(t *testing.T) {
	src := newFakeSource()
	c := newTestCatalog(src, clockwork.NewFakeClock())

	_, table, err := c.Filter(context.Background(), domain.FilterConfig{Years: &domain.Range[int]{Min: 2025, Max: 2000}})
	assert.Nil(t, table)

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, int32(0), src.loads.Load())
}

func TestFilterKey(t *testing.T) {
	open := domain.FilterConfig{Magnitude: &domain.Range[float64]{Min: 7, Max: math.Inf(1)}}
	assert.Equal(t, "3|*|7:+Inf|*|[]|false||", filterKey(3, open))

	assert.NotEqual(t,
		filterKey(1, domain.FilterConfig{}),
		filterKey(1, domain.FilterConfig{Months: []int{}}),
		"nil and empty month lists select different rows",
	)
	assert.NotEqual(t, filterKey(1, domain.FilterConfig{}), filterKey(2, domain.FilterConfig{}))
}

func TestCatalog_CheckReadiness(t *testing.T) {
	c := newTestCatalog(newFakeSource(), clockwork.NewFakeClock())
	require.Error(t, c.CheckReadiness(context.Background()))

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.NoError(t, c.CheckReadiness(context.Background()))
}
