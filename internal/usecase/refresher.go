package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"coincast/internal/domain/models"
	"coincast/internal/domain/repository"
	"coincast/internal/services/analytics"
	"coincast/pkg/logger"
)

// Broadcaster pushes refreshed views to connected dashboard clients.
type Broadcaster interface {
	Broadcast(v interface{})
}

// StreamMessage is what goes out over the websocket after each cycle.
type StreamMessage struct {
	Type     string                   `json:"type"`
	Snapshot *models.Snapshot         `json:"snapshot"`
	Spreads  []models.SpreadReport    `json:"spreads"`
	Alerts   []models.VolatilityAlert `json:"alerts"`
}

// Refresher drives periodic aggregation cycles and holds the latest result
// for read-side consumers. Each cycle takes a snapshot through the cache,
// derives spreads and volatility alerts, broadcasts, and saves the last good
// snapshot when a store is configured.
//
// A failed entry stays failed for the cycle; the next cycle (or a
// user-triggered refresh) retries naturally because failures are never
// cached.
type Refresher struct {
	agg       *Aggregator
	requests  []Request
	interval  time.Duration
	threshold decimal.Decimal
	store     repository.SnapshotStore
	hub       Broadcaster
	metrics   repository.Metrics
	logger    *logger.Logger

	mu      sync.RWMutex
	latest  *models.Snapshot
	spreads []models.SpreadReport
	alerts  []models.VolatilityAlert
}

func NewRefresher(
	agg *Aggregator,
	requests []Request,
	interval time.Duration,
	threshold decimal.Decimal,
	store repository.SnapshotStore,
	hub Broadcaster,
	m repository.Metrics,
	l *logger.Logger,
) *Refresher {
	if m == nil {
		m = repository.NopMetrics{}
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Refresher{
		agg:       agg,
		requests:  requests,
		interval:  interval,
		threshold: threshold,
		store:     store,
		hub:       hub,
		metrics:   m,
		logger:    l,
	}
}

// Threshold returns the configured default volatility threshold.
func (r *Refresher) Threshold() decimal.Decimal { return r.threshold }

// Start rehydrates last known state, runs one immediate cycle, then cycles
// on the configured interval until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) error {
	r.rehydrate(ctx)
	r.Refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return ctx.Err()
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh runs one aggregation cycle now. Safe to call from HTTP handlers;
// the cache keeps a user-triggered refresh from hammering providers.
func (r *Refresher) Refresh(ctx context.Context) *models.Snapshot {
	start := time.Now()

	snap := r.agg.Snapshot(ctx, r.requests)
	spreads := analytics.ComputeSpreads(snap)
	alerts := analytics.Screen(snap, r.threshold)

	r.mu.Lock()
	r.latest = snap
	r.spreads = spreads
	r.alerts = alerts
	r.mu.Unlock()

	r.metrics.RecordCycleDuration(time.Since(start).Seconds())

	if r.hub != nil {
		r.hub.Broadcast(StreamMessage{
			Type:     "refresh",
			Snapshot: snap,
			Spreads:  spreads,
			Alerts:   alerts,
		})
	}

	if r.store != nil {
		if err := r.store.Save(ctx, snap); err != nil {
			r.logger.Warn("snapshot store save failed", logger.Error(err))
		}
	}

	ok, stale, failed := snap.Counts()
	r.logger.Info("cycle complete",
		logger.Int("ok", ok),
		logger.Int("stale", stale),
		logger.Int("failed", failed),
		logger.Int("spreads", len(spreads)),
		logger.Int("alerts", len(alerts)),
		logger.Duration("took", time.Since(start)),
	)
	return snap
}

// Latest returns the most recent cycle's results.
func (r *Refresher) Latest() (*models.Snapshot, []models.SpreadReport, []models.VolatilityAlert) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.spreads, r.alerts
}

// rehydrate loads the last good snapshot from the store, if any, and serves
// it marked stale until the first live cycle lands.
func (r *Refresher) rehydrate(ctx context.Context) {
	if r.store == nil {
		return
	}
	snap, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Warn("snapshot rehydrate failed", logger.Error(err))
		return
	}
	if snap == nil {
		return
	}
	snap.MarkStale()

	r.mu.Lock()
	r.latest = snap
	r.mu.Unlock()
	r.logger.Info("rehydrated last snapshot", logger.Int("entries", len(snap.Entries)))
}
