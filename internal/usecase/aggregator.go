package usecase

import (
	"context"
	"sync"
	"time"

	"coincast/internal/domain/models"
	"coincast/internal/domain/repository"
	"coincast/internal/provider"
	"coincast/pkg/logger"
)

// Request names one unit of fan-out: which provider, which instruments, and
// how long the answer may be reused.
type Request struct {
	Provider models.ProviderID
	Req      models.FetchRequest
	TTL      time.Duration
}

// Aggregator fans out across provider adapters through the TTL cache and
// assembles a unified snapshot. It is the sole writer of snapshots.
//
// Its defining property is total coverage: the snapshot carries exactly one
// entry per requested instrument key no matter how many providers fail. A
// failing source costs its own entries a Failed (or Stale) status and
// nothing else.
type Aggregator struct {
	registry *provider.Registry
	cache    repository.Cache
	metrics  repository.Metrics
	logger   *logger.Logger
}

func NewAggregator(reg *provider.Registry, cache repository.Cache, m repository.Metrics, l *logger.Logger) *Aggregator {
	if m == nil {
		m = repository.NopMetrics{}
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Aggregator{registry: reg, cache: cache, metrics: m, logger: l}
}

// Snapshot resolves every request concurrently and joins on all of them
// before assembling. This is a barrier, not a race: a timed-out provider
// contributes Failed entries while the rest of the fan-out keeps running.
func (a *Aggregator) Snapshot(ctx context.Context, reqs []Request) *models.Snapshot {
	perRequest := make([][]models.Entry, len(reqs))

	var wg sync.WaitGroup
	for i, r := range reqs {
		wg.Add(1)
		go func(i int, r Request) {
			defer wg.Done()
			perRequest[i] = a.resolve(ctx, r)
		}(i, r)
	}
	wg.Wait()

	snap := &models.Snapshot{TakenAt: time.Now().UTC()}
	for _, entries := range perRequest {
		snap.Entries = append(snap.Entries, entries...)
	}

	ok, stale, failed := snap.Counts()
	a.logger.Debug("snapshot assembled",
		logger.Int("ok", ok),
		logger.Int("stale", stale),
		logger.Int("failed", failed),
	)
	return snap
}

// resolve fetches one request through the cache and expands it into entries,
// one per requested instrument key.
func (a *Aggregator) resolve(ctx context.Context, r Request) []models.Entry {
	key := r.Req.CacheKey(r.Provider)

	readings, stale, err := a.cache.GetOrFetch(ctx, key, r.TTL, func(ctx context.Context) ([]models.Reading, error) {
		return a.registry.Fetch(ctx, r.Provider, r.Req)
	})

	if err != nil && !stale {
		reason := models.KindOf(err)
		a.metrics.RecordFetch(string(r.Provider), string(reason))
		a.metrics.RecordError(string(reason))
		a.logger.Warn("provider fetch failed",
			logger.String("provider", string(r.Provider)),
			logger.String("kind", string(reason)),
			logger.Error(err),
		)
		return a.failedEntries(r, reason)
	}

	if err != nil { // stale fallback
		reason := models.KindOf(err)
		a.metrics.RecordFetch(string(r.Provider), "stale")
		a.logger.Warn("serving stale readings",
			logger.String("provider", string(r.Provider)),
			logger.String("kind", string(reason)),
			logger.Error(err),
		)
		return a.expand(r, readings, func(rd models.Reading) models.Entry {
			return models.StaleEntry(rd, reason)
		})
	}

	a.metrics.RecordFetch(string(r.Provider), "ok")
	entries := a.expand(r, readings, models.OkEntry)
	for _, e := range entries {
		if e.Status == models.StatusOk && e.Reading != nil {
			v, _ := e.Reading.Value.Float64()
			a.metrics.RecordLastValue(string(e.Reading.Source), e.Reading.Instrument, v)
		}
	}
	return entries
}

// expand maps readings back onto the requested key set. Instruments the
// source did not report become per-key NotFound failures; ranked (top-N)
// requests take their keys from whatever came back. A reading that violates
// its own invariants (negative price, as_of in the future) is downgraded to
// Failed(MalformedResponse) so it can never feed spread or volatility math.
func (a *Aggregator) expand(r Request, readings []models.Reading, wrap func(models.Reading) models.Entry) []models.Entry {
	now := time.Now().UTC()

	check := func(rd models.Reading) models.Entry {
		if err := rd.Validate(now); err != nil {
			a.logger.Warn("invalid reading dropped",
				logger.String("provider", string(r.Provider)),
				logger.String("instrument", rd.Instrument),
				logger.Error(err),
			)
			return models.FailedEntry(r.Provider, rd.Instrument, models.ErrMalformedResponse)
		}
		return wrap(rd)
	}

	if len(r.Req.Symbols) == 0 {
		// Ranked or parameterless request: the instrument set is defined by
		// the response. An empty response still yields the synthetic key so
		// the snapshot reflects what was asked for.
		if len(readings) == 0 {
			instrument := sentinelInstrument(r)
			return []models.Entry{models.FailedEntry(r.Provider, instrument, models.ErrNotFound)}
		}
		entries := make([]models.Entry, 0, len(readings))
		for _, rd := range readings {
			entries = append(entries, check(rd))
		}
		return entries
	}

	byInstrument := make(map[string]models.Reading, len(readings))
	for _, rd := range readings {
		byInstrument[rd.Instrument] = rd
	}

	entries := make([]models.Entry, 0, len(r.Req.Symbols))
	for _, sym := range r.Req.Symbols {
		if rd, ok := byInstrument[sym]; ok {
			entries = append(entries, check(rd))
			continue
		}
		entries = append(entries, models.FailedEntry(r.Provider, sym, models.ErrNotFound))
	}
	return entries
}

func (a *Aggregator) failedEntries(r Request, reason models.ErrorKind) []models.Entry {
	if len(r.Req.Symbols) == 0 {
		return []models.Entry{models.FailedEntry(r.Provider, sentinelInstrument(r), reason)}
	}
	entries := make([]models.Entry, 0, len(r.Req.Symbols))
	for _, sym := range r.Req.Symbols {
		entries = append(entries, models.FailedEntry(r.Provider, sym, reason))
	}
	return entries
}

func sentinelInstrument(r Request) string {
	if r.Req.TopN > 0 {
		return r.Req.RankedInstrument()
	}
	return "latest"
}
