package dataset

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"schoolpulse/internal/infrastructure"
	"schoolpulse/pkg/contracts/domain"
)

// Snapshot describes the cache state for health and status reporting
type Snapshot struct {
	Loaded      bool
	Stale       bool
	Rows        int
	Years       []int
	Fingerprint string
	LoadedAt    time.Time
	Hits        int64
	Misses      int64
	Parses      int64
	LastError   error
}

// Cache memoises the unified table. The first Table call loads it; later calls
// reuse it until Invalidate, after which the sources are re-read and only
// re-parsed when their fingerprint changed. Failed loads are not cached.
//
// Every Invalidate bumps a generation. A load only commits if no invalidation
// happened since it started reading, and a Table call never returns a result
// read before an invalidation it has observed.
type Cache struct {
	loader  *Loader
	logger  *slog.Logger
	metrics *infrastructure.DatasetMetrics
	group   singleflight.Group

	mu          sync.RWMutex
	table       *domain.Table
	fingerprint string
	loadedAt    time.Time
	stale       bool
	gen         uint64
	lastErr     error

	hits   atomic.Int64
	misses atomic.Int64
	parses atomic.Int64
}

// NewCache wraps loader; metrics may be nil
func NewCache(loader *Loader, logger *slog.Logger, metrics *infrastructure.DatasetMetrics) *Cache {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Cache{
		loader:  loader,
		logger:  logger.With(slog.String("component", "dataset_cache")),
		metrics: metrics,
	}
}

type loadResult struct {
	table *domain.Table
	gen   uint64
}

// Table returns the unified table, loading it if needed. Concurrent callers
// share one load; the shared load is not cancelled when one caller gives up.
func (c *Cache) Table(ctx context.Context) (*domain.Table, error) {
	c.mu.RLock()
	table, stale, gen := c.table, c.stale, c.gen
	c.mu.RUnlock()

	if table != nil && !stale {
		c.hits.Add(1)
		infrastructure.RecordCacheLookup(ctx, c.metrics, true)
		return table, nil
	}

	c.misses.Add(1)
	infrastructure.RecordCacheLookup(ctx, c.metrics, false)

	for {
		ch := c.group.DoChan("table", func() (interface{}, error) {
			return c.refresh(context.WithoutCancel(ctx))
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			r := res.Val.(loadResult)
			if r.gen >= gen {
				return r.table, nil
			}
			// joined a load that began before our invalidation
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// refresh reads the sources and commits the result, starting over whenever an
// invalidation lands while it runs.
func (c *Cache) refresh(ctx context.Context) (loadResult, error) {
	for {
		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		raw, err := c.loader.readAll(ctx)
		if err != nil {
			if c.superseded(gen) {
				continue
			}
			c.fail(ctx, err)
			return loadResult{}, err
		}
		fp := fingerprint(raw)

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			c.logger.DebugContext(ctx, "sources invalidated during load, re-reading")
			continue
		}
		if c.table != nil && c.fingerprint == fp {
			c.stale = false
			c.lastErr = nil
			table := c.table
			c.mu.Unlock()
			c.logger.DebugContext(ctx, "dataset unchanged", slog.String("fingerprint", fp))
			return loadResult{table: table, gen: gen}, nil
		}
		c.mu.Unlock()

		table, err := c.loader.parseAll(ctx, raw)
		if err != nil {
			if c.superseded(gen) {
				continue
			}
			c.fail(ctx, err)
			return loadResult{}, err
		}
		c.parses.Add(1)

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			c.logger.DebugContext(ctx, "sources invalidated during parse, re-reading")
			continue
		}
		c.table = table
		c.fingerprint = fp
		c.loadedAt = time.Now()
		c.stale = false
		c.lastErr = nil
		c.mu.Unlock()

		c.logger.InfoContext(ctx, "dataset cached",
			slog.String("fingerprint", fp[:16]),
			slog.Int("rows", table.Len()))
		return loadResult{table: table, gen: gen}, nil
	}
}

func (c *Cache) superseded(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen != gen
}

func (c *Cache) fail(ctx context.Context, err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	c.logger.ErrorContext(ctx, "dataset load failed", slog.String("error", err.Error()))
}

// Invalidate marks the cached table stale; the next Table call re-checks the sources.
func (c *Cache) Invalidate() {
	c.invalidate("manual")
}

func (c *Cache) invalidate(trigger string) {
	c.mu.Lock()
	c.stale = true
	c.gen++
	c.mu.Unlock()
	infrastructure.RecordInvalidation(context.Background(), c.metrics, trigger)
	c.logger.Info("dataset invalidated", slog.String("trigger", trigger))
}

// Reload invalidates and immediately reloads, reporting whether the content changed
func (c *Cache) Reload(ctx context.Context) (Snapshot, bool, error) {
	return c.reload(ctx, "manual")
}

func (c *Cache) reload(ctx context.Context, trigger string) (Snapshot, bool, error) {
	before := c.Snapshot().Fingerprint
	c.invalidate(trigger)
	if _, err := c.Table(ctx); err != nil {
		return c.Snapshot(), false, err
	}
	snap := c.Snapshot()
	return snap, snap.Fingerprint != before, nil
}

// Snapshot reports the current cache state without triggering a load
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		Loaded:      c.table != nil,
		Stale:       c.stale,
		Rows:        c.table.Len(),
		Years:       c.table.Years(),
		Fingerprint: c.fingerprint,
		LoadedAt:    c.loadedAt,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Parses:      c.parses.Load(),
		LastError:   c.lastErr,
	}
}

// Loader returns the underlying loader
func (c *Cache) Loader() *Loader {
	return c.loader
}
