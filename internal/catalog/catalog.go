// Package catalog owns the prepared event table: it loads the raw catalog from
// a source, prepares it, and serves it until the source changes or the entry
// expires.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/quake-data-explorer/internal/domain"
	"github.com/couchcryptid/quake-data-explorer/internal/observability"
)

// Source provides the raw catalog and a key identifying its current content.
type Source interface {
	Identity() (string, error)
	Load(ctx context.Context) (domain.RawTable, error)
}

// Snapshot is one prepared table together with the source key it was built
// from.
type Snapshot struct {
	Table      *domain.Table
	Key        string
	PreparedAt time.Time
	Generation uint64
}

// RebuildHook is called with every newly prepared snapshot.
type RebuildHook func(ctx context.Context, snap *Snapshot)

// Option configures a Catalog.
type Option func(*Catalog)

// WithRebuildHook registers a hook that runs in the background after each
// successful rebuild.
func WithRebuildHook(h RebuildHook) Option {
	return func(c *Catalog) { c.hooks = append(c.hooks, h) }
}

// WithFilterCacheSize bounds the number of filtered tables kept per snapshot.
func WithFilterCacheSize(n int) Option {
	return func(c *Catalog) { c.results = newResultCache(n) }
}

// WithContext sets the context rebuild hooks run under. The owner cancels it
// on shutdown so in-flight hooks can stop.
func WithContext(ctx context.Context) Option {
	return func(c *Catalog) { c.base = ctx }
}

const defaultFilterCacheSize = 128

var errNotReady = errors.New("catalog not loaded")

// Catalog caches the prepared table for a source. A cached table is served
// while the source identity is unchanged and it is younger than the TTL;
// otherwise the next caller rebuilds it. Concurrent rebuilds of the same
// source content are collapsed into one.
type Catalog struct {
	src     Source
	ttl     time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
	group      singleflight.Group
	results    *lru.Cache[string, *domain.Table]

	base    context.Context
	hooks   []RebuildHook
	hooksWG sync.WaitGroup
}

// New creates a Catalog. Nothing is loaded until the first Get or Reload.
func New(src Source, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Catalog {
	c := &Catalog{
		src:     src,
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		results: newResultCache(defaultFilterCacheSize),
		base:    context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current snapshot, rebuilding it first when the source has
// changed or the cached one has expired. A failed rebuild returns the error;
// an expired table is never served in its place.
func (c *Catalog) Get(ctx context.Context) (*Snapshot, error) {
	key, err := c.src.Identity()
	if err != nil {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, err
	}

	if snap := c.fresh(key); snap != nil {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return snap, nil
	}

	c.metrics.CacheLookups.WithLabelValues("miss").Inc()
	return c.rebuild(ctx, key, false)
}

// Reload rebuilds the snapshot regardless of age.
func (c *Catalog) Reload(ctx context.Context) (*Snapshot, error) {
	key, err := c.src.Identity()
	if err != nil {
		return nil, err
	}
	return c.rebuild(ctx, key, true)
}

// Ready reports whether a table has been prepared at least once.
func (c *Catalog) Ready() bool {
	return c.current.Load() != nil
}

// Filter applies cfg to the current snapshot. Results are memoized per
// snapshot, so repeated queries against an unchanged catalog skip the scan.
func (c *Catalog) Filter(ctx context.Context, cfg domain.FilterConfig) (*Snapshot, *domain.Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	snap, err := c.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	key := filterKey(snap.Generation, cfg)
	if table, ok := c.results.Get(key); ok {
		c.metrics.FilterCache.WithLabelValues("hit").Inc()
		return snap, table, nil
	}
	c.metrics.FilterCache.WithLabelValues("miss").Inc()

	table, err := domain.Apply(snap.Table, cfg)
	if err != nil {
		return nil, nil, err
	}
	c.results.Add(key, table)
	return snap, table, nil
}

// CheckReadiness returns an error until a table has been prepared.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	if !c.Ready() {
		return errNotReady
	}
	return nil
}

// Wait blocks until running rebuild hooks have returned or ctx is done.
func (c *Catalog) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.hooksWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Catalog) fresh(key string) *Snapshot {
	snap := c.current.Load()
	if snap == nil || snap.Key != key {
		return nil
	}
	if c.clock.Since(snap.PreparedAt) >= c.ttl {
		return nil
	}
	return snap
}

// rebuild runs at most one build per source key. A forced reload that
// arrives while a build for the key is running joins it; that build reads
// the same source content.
func (c *Catalog) rebuild(ctx context.Context, key string, force bool) (*Snapshot, error) {
	// The shared build must not be canceled by whichever caller started it.
	buildCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if !force {
			if snap := c.fresh(key); snap != nil {
				return snap, nil
			}
		}
		return c.build(buildCtx, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

func (c *Catalog) build(ctx context.Context, key string) (*Snapshot, error) {
	start := c.clock.Now()

	raw, err := c.src.Load(ctx)
	if err != nil {
		return nil, c.buildFailed(key, err)
	}

	table, err := domain.Prepare(raw)
	if err != nil {
		return nil, c.buildFailed(key, err)
	}

	now := c.clock.Now()
	snap := &Snapshot{
		Table:      table,
		Key:        key,
		PreparedAt: now,
		Generation: c.generation.Add(1),
	}
	c.current.Store(snap)
	c.results.Purge()

	c.metrics.Rebuilds.WithLabelValues("success").Inc()
	c.metrics.RebuildDuration.Observe(now.Sub(start).Seconds())
	c.metrics.CatalogRows.Set(float64(table.Len()))
	c.logger.Info("catalog prepared",
		"rows", table.Len(),
		"generation", snap.Generation,
		"duration", now.Sub(start),
	)

	c.runHooks(snap)
	return snap, nil
}

func (c *Catalog) buildFailed(key string, err error) error {
	c.metrics.Rebuilds.WithLabelValues("error").Inc()
	c.logger.Error("catalog rebuild failed", "source", key, "error", err)
	return err
}

func (c *Catalog) runHooks(snap *Snapshot) {
	for _, h := range c.hooks {
		c.hooksWG.Add(1)
		go func() {
			defer c.hooksWG.Done()
			h(c.base, snap)
		}()
	}
}

func newResultCache(size int) *lru.Cache[string, *domain.Table] {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, *domain.Table](max(size, 1))
	return cache
}

// filterKey identifies a filter within one snapshot. A nil month list and an
// empty one are distinct.
func filterKey(generation uint64, cfg domain.FilterConfig) string {
	return fmt.Sprintf("%d|%s|%s|%s|%v|%t|%s|%s",
		generation,
		rangeKey(cfg.Years), rangeKey(cfg.Magnitude), rangeKey(cfg.Depth),
		cfg.Months, cfg.Months != nil,
		cfg.Tsunami, cfg.Region,
	)
}

func rangeKey[T int | float64](r *domain.Range[T]) string {
	if r == nil {
		return "*"
	}
	return fmt.Sprintf("%v:%v", r.Min, r.Max)
}
