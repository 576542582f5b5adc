package secboard

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheKey string

const (
	KEY_DASHBOARD   CacheKey = "dashboard"
	KEY_TOOLS       CacheKey = "tools"
	KEY_VULNS       CacheKey = "vulnerabilities"
	KEY_RECENT      CacheKey = "vulnerabilities:recent"
	KEY_BY_SEVERITY CacheKey = "vulnerabilities:by_severity"
	KEY_TREND       CacheKey = "vulnerabilities:trend"
	KEY_ALERTS      CacheKey = "alerts"
	KEY_UNACKED     CacheKey = "alerts:unacknowledged"
	KEY_SCANS       CacheKey = "scans"
	KEY_HOSTS       CacheKey = "hosts"
	KEY_METRICS     CacheKey = "metrics"
	KEY_SCHEDULES   CacheKey = "schedules"
)

// WithFilter derives the cache key for a filtered variant of a list
// resource.
func (k CacheKey) WithFilter(filter string) CacheKey {
	if filter == "" {
		return k
	}
	return k + "[" + CacheKey(filter) + "]"
}

type Mutation string

const (
	MUT_ACK_ALERT       Mutation = "acknowledge_alert"
	MUT_START_SCAN      Mutation = "start_scan"
	MUT_STOP_SCAN       Mutation = "stop_scan"
	MUT_TOGGLE_SCHEDULE Mutation = "toggle_schedule"
	MUT_RUN_SCHEDULE    Mutation = "run_schedule"
)

// invalidations maps each mutation to every cached read its success
// could have changed. Hand-maintained; extend it whenever a mutation
// is added. cache_test.go checks it stays exhaustive.
var invalidations = map[Mutation][]CacheKey{
	// unacknowledged counts live in the dashboard aggregate
	MUT_ACK_ALERT:       {KEY_ALERTS, KEY_UNACKED, KEY_DASHBOARD},
	MUT_START_SCAN:      {KEY_TOOLS, KEY_SCANS, KEY_DASHBOARD},
	MUT_STOP_SCAN:       {KEY_TOOLS, KEY_SCANS, KEY_DASHBOARD},
	MUT_TOGGLE_SCHEDULE: {KEY_SCHEDULES},
	MUT_RUN_SCHEDULE:    {KEY_SCHEDULES, KEY_SCANS},
}

// InvalidatedBy returns the cache keys a mutation dirties.
func InvalidatedBy(m Mutation) []CacheKey {
	return invalidations[m]
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// Cache is the shared last-known-good store for all feeds. Entries
// expire if no refresh lands for a while; staleness is tracked
// separately so a marked entry stays visible until replaced.
type Cache struct {
	mu  sync.Mutex
	lru *expirable.LRU[CacheKey, cacheEntry]
}

func NewCache() *Cache {
	return &Cache{
		lru: expirable.NewLRU[CacheKey, cacheEntry](128, nil, 10*time.Minute),
	}
}

func (c *Cache) Put(key CacheKey, v any, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, cacheEntry{value: v, fetchedAt: at})
}

// PutStale seeds an entry that is immediately due for refresh, used
// when warming from the snapshot store.
func (c *Cache) PutStale(key CacheKey, v any, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, cacheEntry{value: v, fetchedAt: at, stale: true})
}

func (c *Cache) Get(key CacheKey) (any, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		return nil, time.Time{}, false
	}
	return e.value, e.fetchedAt, true
}

func (c *Cache) Stale(key CacheKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	return ok && e.stale
}

// MarkStale flags entries for re-fetch without dropping their values.
func (c *Cache) MarkStale(keys ...CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if e, ok := c.lru.Get(key); ok {
			e.stale = true
			c.lru.Add(key, e)
		}
	}
}
