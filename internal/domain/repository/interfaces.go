package repository

import (
	"context"
	"time"

	"coincast/internal/domain/models"
)

// Provider is the uniform adapter contract over one external data source.
// Fetch performs a single network call (or one batch, where the source
// supports batching), carries no retry of its own, and reports failures as
// *models.FetchError. Sources that return partial data yield the readings
// they have; missing instruments surface downstream as per-key NotFound, not
// a whole-call failure.
type Provider interface {
	ID() models.ProviderID
	Fetch(ctx context.Context, req models.FetchRequest) ([]models.Reading, error)
}

// FetchFunc is the deferred fetch a cache invokes on miss or expiry.
type FetchFunc func(ctx context.Context) ([]models.Reading, error)

// Cache memoizes fetch results per (provider, params) key.
//
// The stale return is true when fetch failed but an expired value could be
// served in its place; err is non-nil in that case too, so callers can record
// both the old reading and the failure reason. Failures are never cached.
type Cache interface {
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (readings []models.Reading, stale bool, err error)
}

// SnapshotStore persists the last good snapshot so a restarted process can
// show stale data instead of an empty dashboard.
type SnapshotStore interface {
	Save(ctx context.Context, snap *models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, error)
}

// Metrics abstracts the Prometheus recorder from domain code.
type Metrics interface {
	RecordFetch(provider string, outcome string)
	RecordCacheLookup(hit bool)
	RecordCycleDuration(seconds float64)
	RecordLastValue(source, instrument string, value float64)
	RecordError(kind string)
}

// NopMetrics is used in tests and wherever metrics are disabled.
type NopMetrics struct{}

func (NopMetrics) RecordFetch(string, string)              {}
func (NopMetrics) RecordCacheLookup(bool)                  {}
func (NopMetrics) RecordCycleDuration(float64)             {}
func (NopMetrics) RecordLastValue(string, string, float64) {}
func (NopMetrics) RecordError(string)                      {}
