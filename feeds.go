package secboard

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type FeedState uint8

const (
	FEED_LOADING FeedState = iota
	FEED_READY
	FEED_ERROR
)

// Snapshot is what a feed hands to the renderer: the last-known-good
// value plus enough state to tell loading, error and staleness apart.
type Snapshot[T any] struct {
	Value     T
	State     FeedState
	Err       error
	FetchedAt time.Time
	Stale     bool
}

var (
	retryAttempts = 3
	retryBase     = 500 * time.Millisecond
)

type feedRuntime interface {
	key() CacheKey
	every() time.Duration
	refresh(ctx context.Context)
	run(ctx context.Context)
	warm(payload []byte, at time.Time)
	wake()
}

// Feed is a cached, self-refreshing read of one backend resource.
// Values live in the hub cache so mutations can invalidate across
// feeds; fetch errors stay local to the feed.
type Feed[T any] struct {
	hub      *Hub
	cacheKey CacheKey
	interval time.Duration
	fetch    func(context.Context) (T, error)

	mu    sync.Mutex
	err   error
	wakec chan struct{}
}

func newFeed[T any](h *Hub, key CacheKey, every time.Duration, fetch func(context.Context) (T, error)) *Feed[T] {
	f := &Feed[T]{
		hub:      h,
		cacheKey: key,
		interval: every,
		fetch:    fetch,
		wakec:    make(chan struct{}, 1),
	}
	h.feeds = append(h.feeds, f)
	return f
}

func (f *Feed[T]) key() CacheKey        { return f.cacheKey }
func (f *Feed[T]) every() time.Duration { return f.interval }

func (f *Feed[T]) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *Feed[T]) lastErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Snapshot reports the current state without touching the network.
// A previously fetched value stays visible through failed refreshes;
// the error state is only reached when there is nothing to show.
func (f *Feed[T]) Snapshot() Snapshot[T] {
	err := f.lastErr()

	v, at, ok := f.hub.cache.Get(f.cacheKey)
	if !ok {
		var zero T
		s := Snapshot[T]{Value: zero, State: FEED_LOADING, Err: err}
		if err != nil {
			s.State = FEED_ERROR
		}
		return s
	}

	return Snapshot[T]{
		Value:     v.(T),
		State:     FEED_READY,
		Err:       err,
		FetchedAt: at,
		Stale:     err != nil || f.hub.cache.Stale(f.cacheKey),
	}
}

// Get returns the cached value, refreshing first if the entry is
// missing or marked stale. This is the on-demand path for resources
// that are not worth polling.
func (f *Feed[T]) Get(ctx context.Context) (T, error) {
	if _, _, ok := f.hub.cache.Get(f.cacheKey); !ok || f.hub.cache.Stale(f.cacheKey) {
		f.refresh(ctx)
	}

	snap := f.Snapshot()
	if snap.State == FEED_READY {
		return snap.Value, nil
	}
	var zero T
	return zero, snap.Err
}

// refresh fetches with bounded retry. The last write to the cache
// wins; a refresh racing a mutation may transiently restore stale
// data, which the next invalidation corrects.
func (f *Feed[T]) refresh(ctx context.Context) {
	var (
		v   T
		err error
	)

	wait := retryBase
	for attempt := 0; ; attempt++ {
		if v, err = f.fetch(ctx); err == nil {
			break
		}
		if attempt+1 >= retryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			f.setErr(ctx.Err())
			return
		case <-time.After(wait):
		}
		wait *= 2
	}

	if err != nil {
		f.setErr(err)
		log.Debug().Str("feed", string(f.cacheKey)).Err(err).Msg("refresh failed")
		return
	}

	now := time.Now()
	f.hub.cache.Put(f.cacheKey, v, now)
	f.setErr(nil)
	f.hub.persist(f.cacheKey, v, now)
	f.hub.changed(f.cacheKey)
}

func (f *Feed[T]) warm(payload []byte, at time.Time) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		log.Debug().Str("feed", string(f.cacheKey)).Err(err).Msg("failed to warm feed")
		return
	}
	f.hub.cache.PutStale(f.cacheKey, v, at)
}

func (f *Feed[T]) wake() {
	select {
	case f.wakec <- struct{}{}:
	default:
	}
}

func (f *Feed[T]) run(ctx context.Context) {
	f.refresh(ctx)

	tick := time.NewTicker(f.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			f.refresh(ctx)
		case <-f.wakec:
			f.refresh(ctx)
		}
	}
}

// Refresh intervals, scaled to each resource's volatility.
const (
	EVERY_DASHBOARD = 30 * time.Second
	EVERY_VULNS     = 45 * time.Second
	EVERY_ALERTS    = 10 * time.Second
	EVERY_UNACKED   = 15 * time.Second
	EVERY_TOOLS     = 20 * time.Second
	EVERY_SCANS     = 10 * time.Second
	EVERY_HOSTS     = time.Minute
	EVERY_METRICS   = time.Minute
	EVERY_SCHEDULES = time.Minute
)

// Hub owns the cache, the feeds and the mutation paths. One hub per
// backend.
type Hub struct {
	client   *Client
	cache    *Cache
	store    *SnapshotStore
	notifier *Notifier

	feeds []feedRuntime

	mu       sync.Mutex
	watchers []func(CacheKey)
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	Dashboard       *Feed[DashboardStats]
	Tools           *Feed[[]Tool]
	Vulnerabilities *Feed[[]Vulnerability]
	Alerts          *Feed[[]Alert]
	Unacknowledged  *Feed[[]Alert]
	Scans           *Feed[[]ScanResult]
	Hosts           *Feed[[]Host]
	Metrics         *Feed[[]Metric]
	Schedules       *Feed[[]ScanSchedule]
}

type HubOption func(*Hub)

// WithSnapshotStore persists last-known-good payloads so a restart
// while offline still shows real, if stale, data.
func WithSnapshotStore(s *SnapshotStore) HubOption {
	return func(h *Hub) { h.store = s }
}

func NewHub(client *Client, opts ...HubOption) *Hub {
	h := &Hub{
		client:   client,
		cache:    NewCache(),
		notifier: NewNotifier(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.Dashboard = newFeed(h, KEY_DASHBOARD, EVERY_DASHBOARD, h.fetchStats)
	h.Tools = newFeed(h, KEY_TOOLS, EVERY_TOOLS, func(ctx context.Context) ([]Tool, error) {
		raw, err := client.Tools(ctx)
		if err != nil {
			return nil, err
		}
		return TransformAll(raw, TransformTool)
	})
	h.Vulnerabilities = newFeed(h, KEY_VULNS, EVERY_VULNS, func(ctx context.Context) ([]Vulnerability, error) {
		raw, err := client.Vulnerabilities(ctx, VulnFilter{})
		if err != nil {
			return nil, err
		}
		return TransformAll(raw, TransformVulnerability)
	})
	h.Alerts = newFeed(h, KEY_ALERTS, EVERY_ALERTS, func(ctx context.Context) ([]Alert, error) {
		raw, err := client.Alerts(ctx)
		if err != nil {
			return nil, err
		}
		return TransformAll(raw, TransformAlert)
	})
	h.Unacknowledged = newFeed(h, KEY_UNACKED, EVERY_UNACKED, func(ctx context.Context) ([]Alert, error) {
		raw, err := client.UnacknowledgedAlerts(ctx)
		if err != nil {
			return nil, err
		}
		return TransformAll(raw, TransformAlert)
	})
	h.Scans = newFeed(h, KEY_SCANS, EVERY_SCANS, func(ctx context.Context) ([]ScanResult, error) {
		raw, err := client.Scans(ctx)
		if err != nil {
			return nil, err
		}
		return TransformAll(raw, TransformScan)
	})
	h.Hosts = newFeed(h, KEY_HOSTS, EVERY_HOSTS, func(ctx context.Context) ([]Host, error) {
		raw, err := client.Hosts(ctx)
		if err != nil {
			return nil, err
		}
		return mapAll(raw, TransformHost), nil
	})
	h.Metrics = newFeed(h, KEY_METRICS, EVERY_METRICS, func(ctx context.Context) ([]Metric, error) {
		raw, err := client.Metrics(ctx)
		if err != nil {
			return nil, err
		}
		return mapAll(raw, TransformMetric), nil
	})
	h.Schedules = newFeed(h, KEY_SCHEDULES, EVERY_SCHEDULES, func(ctx context.Context) ([]ScanSchedule, error) {
		raw, err := client.Schedules(ctx)
		if err != nil {
			return nil, err
		}
		return mapAll(raw, TransformSchedule), nil
	})

	return h
}

func mapAll[R, V any](rs []R, fn func(R) V) []V {
	out := make([]V, 0, len(rs))
	for _, r := range rs {
		out = append(out, fn(r))
	}
	return out
}

// fetchStats enriches the backend aggregate with the two counts the
// endpoint does not report, taken from sibling feeds when they have
// data.
func (h *Hub) fetchStats(ctx context.Context) (DashboardStats, error) {
	raw, err := h.client.DashboardStats(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	stats := TransformStats(*raw)
	if v, _, ok := h.cache.Get(KEY_SCANS); ok {
		for _, s := range v.([]ScanResult) {
			if s.Status == SCAN_RUNNING || s.Status == SCAN_PENDING {
				stats.ActiveScans++
			}
		}
	}
	if v, _, ok := h.cache.Get(KEY_TOOLS); ok {
		if tools := v.([]Tool); len(tools) > 0 {
			stats.TotalTools = len(tools)
		}
	}
	return stats, nil
}

func (h *Hub) Notifications() <-chan Notification {
	return h.notifier.C()
}

// Watch registers a callback invoked after any feed refresh lands.
func (h *Hub) Watch(fn func(CacheKey)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.watchers = append(h.watchers, fn)
}

func (h *Hub) changed(key CacheKey) {
	h.mu.Lock()
	watchers := h.watchers
	h.mu.Unlock()

	for _, fn := range watchers {
		fn(key)
	}
}

func (h *Hub) persist(key CacheKey, v any, at time.Time) {
	if h.store == nil {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.store.Save(key, payload, at); err != nil {
		log.Debug().Str("key", string(key)).Err(err).Msg("failed to persist snapshot")
	}
}

// Warm seeds feeds from the snapshot store. Entries arrive marked
// stale, so the first poll replaces them.
func (h *Hub) Warm() {
	if h.store == nil {
		return
	}

	snaps, err := h.store.LoadAll()
	if err != nil {
		log.Debug().Err(err).Msg("failed to load snapshots")
		return
	}

	for _, f := range h.feeds {
		if s, ok := snaps[f.key()]; ok {
			f.warm(s.Payload, s.FetchedAt)
		}
	}
}

// Start launches one poll loop per feed. Stop cancels them all.
func (h *Hub) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel

	for _, f := range h.feeds {
		h.wg.Add(1)
		go func(f feedRuntime) {
			defer h.wg.Done()
			f.run(ctx)
		}(f)
	}
}

func (h *Hub) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

// Connected reports backend reachability. The dashboard feed's health
// stands in for the whole backend; per-resource checks are deliberately
// not consulted.
func (h *Hub) Connected() bool {
	snap := h.Dashboard.Snapshot()
	return snap.State == FEED_READY && snap.Err == nil
}

// invalidate marks the mapped keys stale and wakes their feeds.
func (h *Hub) invalidate(m Mutation) {
	keys := InvalidatedBy(m)
	h.cache.MarkStale(keys...)

	for _, f := range h.feeds {
		for _, key := range keys {
			if f.key() == key {
				f.wake()
			}
		}
	}
}

// FilteredVulnerabilities is a cached read keyed by resource and
// filter. Filtered variants are fetched on demand rather than polled;
// a cached entry is served until a vulnerability-list invalidation or
// expiry.
func (h *Hub) FilteredVulnerabilities(ctx context.Context, f VulnFilter) ([]Vulnerability, error) {
	key := KEY_VULNS.WithFilter(f.query())
	if v, _, ok := h.cache.Get(key); ok && !h.cache.Stale(key) {
		return v.([]Vulnerability), nil
	}

	raw, err := h.client.Vulnerabilities(ctx, f)
	if err != nil {
		// stale-while-revalidate applies to filtered reads too
		if v, _, ok := h.cache.Get(key); ok {
			return v.([]Vulnerability), nil
		}
		return nil, err
	}

	vulns, err := TransformAll(raw, TransformVulnerability)
	if err != nil {
		return nil, err
	}
	h.cache.Put(key, vulns, time.Now())
	return vulns, nil
}

// MUTATIONS
// ---

func (h *Hub) AcknowledgeAlert(ctx context.Context, id uint) error {
	if _, err := h.client.AcknowledgeAlert(ctx, id); err != nil {
		h.notifier.emit("Acknowledge failed", err.Error(), err)
		return err
	}

	h.invalidate(MUT_ACK_ALERT)
	h.notifier.emit("Alert acknowledged", "", nil)
	return nil
}

func (h *Hub) StartScan(ctx context.Context, toolID uint, target, scanType string) (*ScanStarted, error) {
	started, err := h.client.StartScan(ctx, toolID, target, scanType)
	if err != nil {
		h.notifier.emit("Scan failed to start", err.Error(), err)
		return nil, err
	}

	h.invalidate(MUT_START_SCAN)
	h.notifier.emit("Scan started", started.Message, nil)
	return started, nil
}

func (h *Hub) StopScan(ctx context.Context, toolID uint) error {
	stopped, err := h.client.StopScan(ctx, toolID)
	if err != nil {
		h.notifier.emit("Scan failed to stop", err.Error(), err)
		return err
	}

	h.invalidate(MUT_STOP_SCAN)
	h.notifier.emit("Scan stopped", stopped.Tool, nil)
	return nil
}

func (h *Hub) ToggleSchedule(ctx context.Context, id uint) error {
	toggled, err := h.client.ToggleSchedule(ctx, id)
	if err != nil {
		h.notifier.emit("Schedule toggle failed", err.Error(), err)
		return err
	}

	h.invalidate(MUT_TOGGLE_SCHEDULE)
	h.notifier.emit("Schedule updated", toggled.Message, nil)
	return nil
}

func (h *Hub) RunScheduleNow(ctx context.Context, id uint) error {
	run, err := h.client.RunScheduleNow(ctx, id)
	if err != nil {
		h.notifier.emit("Schedule run failed", err.Error(), err)
		return err
	}

	h.invalidate(MUT_RUN_SCHEDULE)
	h.notifier.emit("Scan triggered", run.Message, nil)
	return nil
}
