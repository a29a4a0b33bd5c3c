// Package cache memoizes analysis results per canonical topology.
//
// The engine is invoked at most once per distinct topology for as long as its
// entry is resident: the default store never evicts, and a bounded store
// (WithCapacity) evicts the least recently used entries. A failed or timed-out
// analysis is never stored, so a later call may compute it again.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/relab/fbas"
	"github.com/relab/fbas/engine"
	"github.com/relab/fbas/logging"
	"github.com/relab/fbas/topology"
)

type entry struct {
	topology *topology.Canonical
	result   *engine.Result
}

// Stats are counters describing the use of a cache.
type Stats struct {
	Hits     uint64
	Misses   uint64
	Failures uint64
	Entries  int
}

// Cache memoizes engine results. It is safe for concurrent use; concurrent
// GetOrCompute calls are serialized, so two callers never compute the same topology.
type Cache struct {
	mut     sync.Mutex
	engine  engine.Engine
	store   store
	timeout time.Duration
	logger  logging.Logger
	stats   Stats
}

// Option configures a Cache.
type Option func(*Cache) error

// WithCapacity bounds the cache to n entries, evicting the least recently used.
// A capacity of zero or less means unbounded.
func WithCapacity(n int) Option {
	return func(c *Cache) error {
		if n <= 0 {
			c.store = newMapStore()
			return nil
		}
		s, err := newLRUStore(n)
		if err != nil {
			return err
		}
		c.store = s
		return nil
	}
}

// WithTimeout bounds the time of each engine invocation. Zero means no bound
// other than the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) error {
		c.timeout = d
		return nil
	}
}

// WithLogger sets the logger of the cache.
func WithLogger(logger logging.Logger) Option {
	return func(c *Cache) error {
		c.logger = logger
		return nil
	}
}

// New returns a new cache in front of the given engine.
func New(e engine.Engine, opts ...Option) (*Cache, error) {
	c := &Cache{
		engine: e,
		store:  newMapStore(),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetOrCompute returns the result for the topology and whether it was found in the cache.
// On a miss the engine is invoked once and its result stored. Engine errors, panics
// and timeouts are returned as *fbas.EngineFailure, and nothing is stored.
func (c *Cache) GetOrCompute(ctx context.Context, t *topology.Canonical) (res *engine.Result, hit bool, err error) {
	c.mut.Lock()
	defer c.mut.Unlock()

	key := t.Digest()
	if e, ok := c.store.get(key); ok && e.topology.Equal(t) {
		c.stats.Hits++
		c.logger.Debugw("cache hit", "digest", key.String())
		return e.result, true, nil
	}
	c.stats.Misses++
	c.logger.Debugw("cache miss", "digest", key.String(), "nodes", t.Len())

	start := time.Now()
	res, err = c.compute(ctx, t)
	if err != nil {
		c.stats.Failures++
		c.logger.Warnw("analysis failed", "digest", key.String(), "duration", time.Since(start), "error", err)
		return nil, false, err
	}
	res = res.Normalize()
	c.store.add(key, &entry{topology: t, result: res})
	c.logger.Infow("analysis stored", "digest", key.String(), "nodes", t.Len(), "duration", time.Since(start))
	return res, false, nil
}

type outcome struct {
	res *engine.Result
	err error
}

// compute runs the engine in its own goroutine, so that the time bound holds
// even for engines that do not observe their context.
func (c *Cache) compute(ctx context.Context, t *topology.Canonical) (*engine.Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := c.engine.Analyze(ctx, t)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		switch {
		case o.err != nil && ctx.Err() != nil:
			return nil, &fbas.EngineFailure{Err: fmt.Errorf("%w: %w", fbas.ErrEngineTimeout, o.err)}
		case o.err != nil:
			return nil, &fbas.EngineFailure{Err: o.err}
		case o.res == nil:
			return nil, &fbas.EngineFailure{Err: fmt.Errorf("engine returned no result")}
		}
		return o.res, nil
	case <-ctx.Done():
		return nil, &fbas.EngineFailure{Err: fmt.Errorf("%w: %w", fbas.ErrEngineTimeout, ctx.Err())}
	}
}

// Contains returns true if a result for the topology is stored.
func (c *Cache) Contains(t *topology.Canonical) bool {
	c.mut.Lock()
	defer c.mut.Unlock()
	e, ok := c.store.peek(t.Digest())
	return ok && e.topology.Equal(t)
}

// Len returns the number of stored results.
func (c *Cache) Len() int {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.store.len()
}

// Stats returns the cache's counters.
func (c *Cache) Stats() Stats {
	c.mut.Lock()
	defer c.mut.Unlock()
	s := c.stats
	s.Entries = c.store.len()
	return s
}

// Purge removes all stored results.
func (c *Cache) Purge() {
	c.mut.Lock()
	defer c.mut.Unlock()
	c.store.purge()
}
