package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hugotzc/oasa-backend/internal/entitlements"
	"github.com/hugotzc/oasa-backend/pkg/logger"
	"github.com/hugotzc/oasa-backend/pkg/metrics"
)

const defaultFetchTimeout = 3 * time.Second

// State is the lifecycle of one client's cache entry.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
)

// Snapshot is the storefront capability view served to UI consumers.
type Snapshot struct {
	ClientID    string                    `json:"client_id"`
	PlanKey     string                    `json:"plan_key"`
	Mode        entitlements.ShoppingMode `json:"mode"`
	ModeLabel   string                    `json:"mode_label"`
	CanPurchase bool                      `json:"can_purchase"`
	Flags       entitlements.DisplayFlags `json:"flags"`
	Source      string                    `json:"source"`
	FailOpen    bool                      `json:"fail_open"`
	Generation  uint64                    `json:"generation"`
	FetchedAt   time.Time                 `json:"fetched_at"`
}

// Fetcher resolves the entitlement set behind the cache.
type Fetcher interface {
	Resolve(ctx context.Context, clientID string) (*entitlements.ResolvedFeatureSet, error)
}

// CacheParams groups dependencies for the capability cache.
type CacheParams struct {
	Fetcher      Fetcher
	Logger       *logger.Logger
	Metrics      *metrics.CacheMetrics
	FetchTimeout time.Duration
}

// Cache keeps per-client capability snapshots. A fetch failure never blocks
// the storefront: the entry becomes ready with fail-open defaults and is
// corrected by a later successful refresh.
type Cache struct {
	fetcher Fetcher
	logger  *logger.Logger
	metrics *metrics.CacheMetrics
	timeout time.Duration

	mu         sync.Mutex
	entries    map[string]*entry
	subs       map[int]chan Snapshot
	nextSubID  int
	generation uint64
}

type entry struct {
	state    State
	snapshot *Snapshot
	inflight chan struct{}
}

// NewCache builds the capability cache.
func NewCache(params CacheParams) (*Cache, error) {
	if params.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.FetchTimeout <= 0 {
		params.FetchTimeout = defaultFetchTimeout
	}
	return &Cache{
		fetcher: params.Fetcher,
		logger:  params.Logger,
		metrics: params.Metrics,
		timeout: params.FetchTimeout,
		entries: map[string]*entry{},
		subs:    map[int]chan Snapshot{},
	}, nil
}

// State reports the lifecycle state for a client entry.
func (c *Cache) State(clientID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[clientID]
	if !ok {
		return StateUninitialized
	}
	return e.state
}

// Get returns the current snapshot for a client, refreshing first when the
// entry has never been populated. Get never fails: a broken store yields a
// fail-open snapshot.
func (c *Cache) Get(ctx context.Context, clientID string) Snapshot {
	c.mu.Lock()
	e := c.entries[clientID]
	if e != nil && e.snapshot != nil {
		snapshot := *e.snapshot
		c.mu.Unlock()
		return snapshot
	}
	c.mu.Unlock()
	return c.Refresh(ctx, clientID)
}

// Refresh re-fetches the snapshot for a client. Concurrent refreshes for the
// same client coalesce onto one in-flight fetch.
func (c *Cache) Refresh(ctx context.Context, clientID string) Snapshot {
	c.mu.Lock()
	e, ok := c.entries[clientID]
	if !ok {
		e = &entry{state: StateUninitialized}
		c.entries[clientID] = e
	}

	if e.inflight != nil {
		wait := e.inflight
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
		}
		return c.current(clientID)
	}

	done := make(chan struct{})
	e.inflight = done
	e.state = StateLoading
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	snapshot := c.fetch(ctx, clientID, gen)
	c.commit(clientID, snapshot, done)
	return c.current(clientID)
}

// Subscribe registers a listener for accepted snapshots. The cancel func
// removes the subscription and closes the channel.
func (c *Cache) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	ch := make(chan Snapshot, 16)
	c.subs[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(existing)
		}
	}
}

func (c *Cache) fetch(ctx context.Context, clientID string, gen uint64) Snapshot {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	set, err := c.fetcher.Resolve(fetchCtx, clientID)
	if err != nil {
		c.logger.Error(ctx, "capability fetch failed, serving fail-open defaults", err)
		c.metrics.IncRefresh("fail_open")
		return failOpenSnapshot(clientID, gen)
	}

	mode := entitlements.DeriveMode(set)
	c.metrics.IncRefresh("success")
	return Snapshot{
		ClientID:    clientID,
		PlanKey:     set.PlanKey,
		Mode:        mode,
		ModeLabel:   mode.Label(),
		CanPurchase: mode.CanPurchase(),
		Flags:       entitlements.DeriveDisplayFlags(set, mode),
		Source:      set.Source,
		Generation:  gen,
		FetchedAt:   time.Now().UTC(),
	}
}

func (c *Cache) commit(clientID string, snapshot Snapshot, done chan struct{}) {
	c.mu.Lock()
	e := c.entries[clientID]
	if e == nil {
		e = &entry{}
		c.entries[clientID] = e
	}
	if e.inflight == done {
		e.inflight = nil
	}
	close(done)

	if e.snapshot != nil && snapshot.Generation <= e.snapshot.Generation {
		// A newer refresh already landed; drop this response.
		c.mu.Unlock()
		c.metrics.IncStaleDiscarded()
		return
	}
	e.snapshot = &snapshot
	e.state = StateReady

	listeners := make([]chan Snapshot, 0, len(c.subs))
	for _, ch := range c.subs {
		listeners = append(listeners, ch)
	}
	c.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- snapshot:
		default:
			// Slow subscribers miss intermediate snapshots rather than block.
		}
	}
}

func (c *Cache) current(clientID string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[clientID]
	if e != nil && e.snapshot != nil {
		return *e.snapshot
	}
	return failOpenSnapshot(clientID, 0)
}

// failOpenSnapshot is the commerce-on default: a resolver outage must never
// turn the storefront off.
func failOpenSnapshot(clientID string, gen uint64) Snapshot {
	return Snapshot{
		ClientID:    clientID,
		Mode:        entitlements.ModeFull,
		ModeLabel:   entitlements.ModeFull.Label(),
		CanPurchase: true,
		Flags: entitlements.DisplayFlags{
			ShowCart:      true,
			ShowPrices:    true,
			ShowAddToCart: true,
			ShowCheckout:  true,
		},
		FailOpen:   true,
		Generation: gen,
		FetchedAt:  time.Now().UTC(),
	}
}
