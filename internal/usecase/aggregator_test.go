package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coincast/internal/domain/models"
	"coincast/internal/provider"
	"coincast/internal/service/cache"
)

type fakeProvider struct {
	id       models.ProviderID
	readings []models.Reading
	err      error
	calls    int
}

func (f *fakeProvider) ID() models.ProviderID { return f.id }

func (f *fakeProvider) Fetch(ctx context.Context, req models.FetchRequest) ([]models.Reading, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.readings, nil
}

func newReading(source models.ProviderID, instrument, value string) models.Reading {
	v, _ := decimal.NewFromString(value)
	return models.Reading{
		Instrument: instrument,
		Value:      v,
		Unit:       models.UnitCurrencyMajor,
		AsOf:       time.Now().UTC(),
		Source:     source,
	}
}

func registryWith(provs ...*fakeProvider) *provider.Registry {
	reg := provider.NewRegistry()
	for _, p := range provs {
		reg.Register(provider.Registration{Provider: p, TTL: time.Minute})
	}
	return reg
}

func keysOf(snap *models.Snapshot) []models.InstrumentKey {
	keys := make([]models.InstrumentKey, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestSnapshot_EveryRequestedKeyPresent(t *testing.T) {
	stocks := &fakeProvider{id: models.ProviderStockIndex, readings: []models.Reading{
		newReading(models.ProviderStockIndex, "^NSEI", "24500.10"),
		newReading(models.ProviderStockIndex, "^BSESN", "80212.45"),
	}}
	agg := NewAggregator(registryWith(stocks), cache.New(nil), nil, nil)

	snap := agg.Snapshot(context.Background(), []Request{{
		Provider: models.ProviderStockIndex,
		Req:      models.FetchRequest{Symbols: []string{"^NSEI", "^BSESN"}},
		TTL:      time.Minute,
	}})

	require.Len(t, snap.Entries, 2)
	assert.Equal(t, []models.InstrumentKey{
		{Source: models.ProviderStockIndex, Instrument: "^NSEI"},
		{Source: models.ProviderStockIndex, Instrument: "^BSESN"},
	}, keysOf(snap))
	ok, stale, failed := snap.Counts()
	assert.Equal(t, 2, ok)
	assert.Zero(t, stale)
	assert.Zero(t, failed)
}

func TestSnapshot_PartialOutageIsolatesFailingSource(t *testing.T) {
	stocks := &fakeProvider{id: models.ProviderStockIndex, readings: []models.Reading{
		newReading(models.ProviderStockIndex, "^NSEI", "24500.10"),
	}}
	sentiment := &fakeProvider{id: models.ProviderSentiment, readings: []models.Reading{
		newReading(models.ProviderSentiment, "fear_greed", "61"),
	}}
	exchange := &fakeProvider{
		id:  models.ProviderBinance,
		err: models.NewFetchError(models.ProviderBinance, models.ErrTimeout, "deadline exceeded", nil),
	}

	agg := NewAggregator(registryWith(stocks, sentiment, exchange), cache.New(nil), nil, nil)

	snap := agg.Snapshot(context.Background(), []Request{
		{Provider: models.ProviderStockIndex, Req: models.FetchRequest{Symbols: []string{"^NSEI"}}, TTL: time.Minute},
		{Provider: models.ProviderSentiment, Req: models.FetchRequest{}, TTL: time.Minute},
		{Provider: models.ProviderBinance, Req: models.FetchRequest{Symbols: []string{"BTCUSDT", "ETHUSDT"}}, TTL: time.Minute},
	})

	require.Len(t, snap.Entries, 4)
	ok, stale, failed := snap.Counts()
	assert.Equal(t, 2, ok)
	assert.Zero(t, stale)
	assert.Equal(t, 2, failed)

	for _, e := range snap.Entries {
		if e.Key.Source != models.ProviderBinance {
			assert.Equal(t, models.StatusOk, e.Status)
			continue
		}
		assert.Equal(t, models.StatusFailed, e.Status)
		assert.Equal(t, models.ErrTimeout, e.Reason)
		assert.Nil(t, e.Reading)
	}
}

func TestSnapshot_MissingSymbolBecomesNotFound(t *testing.T) {
	stocks := &fakeProvider{id: models.ProviderStockIndex, readings: []models.Reading{
		newReading(models.ProviderStockIndex, "^NSEI", "24500.10"),
	}}
	agg := NewAggregator(registryWith(stocks), cache.New(nil), nil, nil)

	snap := agg.Snapshot(context.Background(), []Request{{
		Provider: models.ProviderStockIndex,
		Req:      models.FetchRequest{Symbols: []string{"^NSEI", "NO-SUCH"}},
		TTL:      time.Minute,
	}})

	require.Len(t, snap.Entries, 2)
	assert.Equal(t, models.StatusOk, snap.Entries[0].Status)
	assert.Equal(t, models.StatusFailed, snap.Entries[1].Status)
	assert.Equal(t, models.ErrNotFound, snap.Entries[1].Reason)
	assert.Equal(t, "NO-SUCH", snap.Entries[1].Key.Instrument)
}

func TestSnapshot_InvalidReadingsDowngradedToFailed(t *testing.T) {
	futureDated := newReading(models.ProviderStockIndex, "^NSEI", "24500.10")
	futureDated.AsOf = time.Now().Add(24 * time.Hour)
	negative := newReading(models.ProviderStockIndex, "^BSESN", "80212.45")
	negative.Value = decimal.RequireFromString("-1.00")
	good := newReading(models.ProviderStockIndex, "BTC-INR", "5100000.25")

	stocks := &fakeProvider{id: models.ProviderStockIndex, readings: []models.Reading{futureDated, negative, good}}
	agg := NewAggregator(registryWith(stocks), cache.New(nil), nil, nil)

	snap := agg.Snapshot(context.Background(), []Request{{
		Provider: models.ProviderStockIndex,
		Req:      models.FetchRequest{Symbols: []string{"^NSEI", "^BSESN", "BTC-INR"}},
		TTL:      time.Minute,
	}})

	require.Len(t, snap.Entries, 3)
	for _, e := range snap.Entries[:2] {
		assert.Equal(t, models.StatusFailed, e.Status, "key %s", e.Key.Instrument)
		assert.Equal(t, models.ErrMalformedResponse, e.Reason)
		assert.Nil(t, e.Reading, "a violating reading must not surface as data")
	}
	assert.Equal(t, models.StatusOk, snap.Entries[2].Status)
}

func TestSnapshot_UnregisteredProviderFailsItsKeysOnly(t *testing.T) {
	agg := NewAggregator(provider.NewRegistry(), cache.New(nil), nil, nil)

	snap := agg.Snapshot(context.Background(), []Request{{
		Provider: models.ProviderCoinGecko,
		Req:      models.FetchRequest{TopN: 10},
		TTL:      time.Minute,
	}})

	require.Len(t, snap.Entries, 1)
	assert.Equal(t, models.StatusFailed, snap.Entries[0].Status)
	assert.Equal(t, models.ErrNotFound, snap.Entries[0].Reason)
	assert.Equal(t, "top10", snap.Entries[0].Key.Instrument)
}

func TestSnapshot_CachedResultSkipsProvider(t *testing.T) {
	stocks := &fakeProvider{id: models.ProviderStockIndex, readings: []models.Reading{
		newReading(models.ProviderStockIndex, "^NSEI", "24500.10"),
	}}
	agg := NewAggregator(registryWith(stocks), cache.New(nil), nil, nil)

	reqs := []Request{{
		Provider: models.ProviderStockIndex,
		Req:      models.FetchRequest{Symbols: []string{"^NSEI"}},
		TTL:      time.Minute,
	}}
	agg.Snapshot(context.Background(), reqs)
	agg.Snapshot(context.Background(), reqs)

	assert.Equal(t, 1, stocks.calls, "second snapshot within TTL must hit the cache")
}

func TestSnapshot_StaleFallbackKeepsLastReading(t *testing.T) {
	stocks := &fakeProvider{id: models.ProviderStockIndex, readings: []models.Reading{
		newReading(models.ProviderStockIndex, "^NSEI", "24500.10"),
	}}
	c := cache.New(nil)
	now := time.Now()
	c.SetClock(func() time.Time { return now })
	agg := NewAggregator(registryWith(stocks), c, nil, nil)

	reqs := []Request{{
		Provider: models.ProviderStockIndex,
		Req:      models.FetchRequest{Symbols: []string{"^NSEI"}},
		TTL:      time.Minute,
	}}
	agg.Snapshot(context.Background(), reqs)

	stocks.err = models.NewFetchError(models.ProviderStockIndex, models.ErrUnreachable, "connection refused", nil)
	now = now.Add(2 * time.Minute)

	snap := agg.Snapshot(context.Background(), reqs)
	require.Len(t, snap.Entries, 1)
	e := snap.Entries[0]
	assert.Equal(t, models.StatusStale, e.Status)
	assert.Equal(t, models.ErrUnreachable, e.Reason)
	require.NotNil(t, e.Reading)
	assert.True(t, e.Reading.Value.Equal(decimal.RequireFromString("24500.10")))
}
