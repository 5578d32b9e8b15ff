// internal/poller/poller.go
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/floorlab/floorbot/internal/addr"
	"github.com/floorlab/floorbot/internal/events"
	"github.com/floorlab/floorbot/internal/market"
	"github.com/floorlab/floorbot/internal/metrics"
)

// Cache keys for the three derived views.
const (
	KeyListings = "listings"
	KeyFloor    = "floor"
)

// HoldingsKey returns the cache key for an owner's holdings view.
func HoldingsKey(owner string) string {
	return "holdings:" + addr.Normalize(owner)
}

// Scans is the scan engine surface the poller drives. *market.Scanner
// implements it.
type Scans interface {
	Holdings(ctx context.Context, owner string) market.HoldingsResult
	Listings(ctx context.Context) market.ListingsResult
	Floor(ctx context.Context) market.FloorResult
}

// Config configures the derived-state poller.
type Config struct {
	Scans     Scans
	Bus       *events.Bus
	Collector *metrics.Collector
	Logger    *zap.Logger
	// RefreshInterval is the background polling cadence.
	RefreshInterval time.Duration
	// StaleTime suppresses rescans for reads within this window.
	StaleTime time.Duration
	// RefetchOnFocus makes Focus() refresh stale keys immediately.
	RefetchOnFocus bool
}

type entry struct {
	data      any
	updatedAt time.Time
	refresh   func(ctx context.Context) any
}

// Service gives consumers cheap, eventually-fresh access to the derived
// views without per-read rescans. A full scan is O(supply) view calls, so
// the poller is the only component allowed to trigger one: fresh snapshots
// are served from memory, stale reads coalesce into a single scan, and a
// background ticker keeps every known key warm. A failed scan is not
// retried; it waits for the next tick.
type Service struct {
	scans     Scans
	bus       *events.Bus
	collector *metrics.Collector
	logger    *zap.Logger

	refreshInterval time.Duration
	staleTime       time.Duration
	refetchOnFocus  bool

	mu      sync.RWMutex
	entries map[string]*entry
	group   singleflight.Group

	sub    events.Subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates the poller.
func NewService(cfg Config) *Service {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 15 * time.Second
	}
	if cfg.StaleTime <= 0 {
		cfg.StaleTime = 10 * time.Second
	}
	return &Service{
		scans:           cfg.Scans,
		bus:             cfg.Bus,
		collector:       cfg.Collector,
		logger:          cfg.Logger.Named("poller"),
		refreshInterval: cfg.RefreshInterval,
		staleTime:       cfg.StaleTime,
		refetchOnFocus:  cfg.RefetchOnFocus,
		entries:         make(map[string]*entry),
	}
}

// Start launches the background refresh loop and subscribes to
// transaction confirmations for cache invalidation.
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if s.bus != nil {
		s.sub = s.bus.SubscribeFunc(events.TransactionConfirmed, func(_ context.Context, _ events.Event) error {
			// Any confirmed transaction may move holdings, listings and
			// the floor at once; invalidating everything is cheaper than
			// being wrong.
			s.InvalidateAll()
			return nil
		})
	}

	s.wg.Add(1)
	go s.refreshLoop(ctx)
}

// Stop shuts the poller down.
func (s *Service) Stop() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Holdings returns the holdings view for owner, scanning only when the
// cached snapshot is stale.
func (s *Service) Holdings(ctx context.Context, owner string) market.HoldingsResult {
	key := HoldingsKey(owner)
	refresh := func(ctx context.Context) any {
		return s.scans.Holdings(ctx, owner)
	}
	return s.get(ctx, key, refresh).(market.HoldingsResult)
}

// Listings returns the all-active-listings view.
func (s *Service) Listings(ctx context.Context) market.ListingsResult {
	refresh := func(ctx context.Context) any {
		return s.scans.Listings(ctx)
	}
	return s.get(ctx, KeyListings, refresh).(market.ListingsResult)
}

// Floor returns the floor-listing view.
func (s *Service) Floor(ctx context.Context) market.FloorResult {
	refresh := func(ctx context.Context) any {
		return s.scans.Floor(ctx)
	}
	return s.get(ctx, KeyFloor, refresh).(market.FloorResult)
}

// Invalidate marks the given keys stale so the next read rescans.
func (s *Service) Invalidate(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		if e, ok := s.entries[key]; ok {
			e.updatedAt = time.Time{}
		}
	}
}

// InvalidateAll marks every cached view stale.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		e.updatedAt = time.Time{}
	}
	s.logger.Debug("All derived views invalidated")
}

// Focus refreshes stale keys immediately, the window-focus refetch.
func (s *Service) Focus(ctx context.Context) {
	if !s.refetchOnFocus {
		return
	}
	for _, key := range s.staleKeys() {
		s.refreshKey(ctx, key)
	}
}

// get serves a fresh snapshot from memory or coalesces concurrent stale
// readers into one scan.
func (s *Service) get(ctx context.Context, key string, refresh func(ctx context.Context) any) any {
	s.mu.RLock()
	e, ok := s.entries[key]
	if ok && time.Since(e.updatedAt) < s.staleTime {
		data := e.data
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	data, _, _ := s.group.Do(key, func() (any, error) {
		result := refresh(ctx)
		s.store(key, result, refresh)
		return result, nil
	})
	return data
}

func (s *Service) store(key string, data any, refresh func(ctx context.Context) any) {
	s.mu.Lock()
	s.entries[key] = &entry{data: data, updatedAt: time.Now(), refresh: refresh}
	s.mu.Unlock()

	s.announce(key, data)
}

// announce publishes refresh events and updates gauges after a scan.
func (s *Service) announce(key string, data any) {
	items := 0
	switch v := data.(type) {
	case market.HoldingsResult:
		items = v.Total
	case market.ListingsResult:
		items = v.Total
	case market.FloorResult:
		items = v.TotalListings
		if v.Floor != nil {
			if s.collector != nil {
				s.collector.RecordFloorPrice(v.Floor.Price)
			}
			s.publish(&events.FloorUpdatedEvent{
				BaseEvent:  events.NewBase(events.FloorUpdated),
				TokenIndex: v.Floor.Token.Index,
				Token:      v.Floor.Token.Object,
				Seller:     v.Floor.Seller,
				Price:      v.Floor.Price,
			})
		}
	}

	s.publish(&events.ViewRefreshedEvent{
		BaseEvent: events.NewBase(events.ViewRefreshed),
		Key:       key,
		Items:     items,
	})
}

func (s *Service) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(event); err != nil {
		s.logger.Debug("Failed to publish event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}

func (s *Service) refreshLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, key := range s.knownKeys() {
				s.refreshKey(ctx, key)
			}
		}
	}
}

func (s *Service) refreshKey(ctx context.Context, key string) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return
	}

	_, _, _ = s.group.Do(key, func() (any, error) {
		result := e.refresh(ctx)
		s.store(key, result, e.refresh)
		return result, nil
	})
}

func (s *Service) knownKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}

func (s *Service) staleKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key, e := range s.entries {
		if time.Since(e.updatedAt) >= s.staleTime {
			keys = append(keys, key)
		}
	}
	return keys
}
