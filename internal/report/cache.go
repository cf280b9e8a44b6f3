package report

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/bird-observation-etl/internal/observability"
)

// CachedRunner wraps a Runner with an in-memory LRU cache whose entries
// expire after a fixed TTL.
type CachedRunner struct {
	inner   Runner
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedRunner creates a cache decorator around a runner. A non-positive
// ttl keeps entries until they are evicted.
func NewCachedRunner(inner Runner, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedRunner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedRunner{
		inner:   inner,
		cache:   newLRUCache(maxEntries, ttl, clock),
		metrics: metrics,
	}
}

// Run serves the request from cache when possible. Errors are never cached.
func (c *CachedRunner) Run(ctx context.Context, req Request) (Result, error) {
	key := cacheKey(req)
	if res, ok := c.cache.get(key); ok {
		c.metrics.ReportCache.WithLabelValues("hit").Inc()
		return res, nil
	}
	c.metrics.ReportCache.WithLabelValues("miss").Inc()

	res, err := c.inner.Run(ctx, req)
	if err != nil {
		return res, err
	}
	c.cache.put(key, res)
	return res, nil
}

// Purge drops every cached result, e.g. after the table was reloaded.
func (c *CachedRunner) Purge() {
	c.cache.purge()
}

// cacheKey renders a request so that filters listing the same values in a
// different order share an entry.
func cacheKey(req Request) string {
	limit := req.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	years := make([]string, len(req.Filter.Years))
	for i, y := range req.Filter.Years {
		years[i] = fmt.Sprint(y)
	}
	return strings.Join([]string{
		req.Name,
		sortedJoin(req.Filter.LocationTypes),
		sortedJoin(years),
		sortedJoin(req.Filter.Observers),
		sortedJoin(req.Filter.Species),
		req.Species,
		fmt.Sprint(limit),
	}, "\x1f")
}

func sortedJoin(values []string) string {
	s := slices.Clone(values)
	slices.Sort(s)
	s = slices.Compact(s)
	return strings.Join(s, "\x1e")
}

// lruCache is a simple thread-safe LRU cache for report results.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   Result
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	if c.ttl > 0 && !c.clock.Now().Before(e.expires) {
		delete(c.entries, key)
		c.remove(e)
		return Result{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.head, c.tail = nil, nil
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
