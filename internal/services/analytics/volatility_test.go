package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coincast/internal/domain/models"
)

func okEntryWithChange(source models.ProviderID, instrument, value, pct string) models.Entry {
	change := decimal.RequireFromString(pct)
	return models.OkEntry(models.Reading{
		Instrument:       instrument,
		Value:            decimal.RequireFromString(value),
		Unit:             models.UnitCurrencyMajor,
		AsOf:             time.Now().UTC(),
		Source:           source,
		PercentChange24h: &change,
	})
}

func TestScreen_AbsoluteChangeBeyondThreshold(t *testing.T) {
	snap := &models.Snapshot{Entries: []models.Entry{
		okEntryWithChange(models.ProviderCoinGecko, "BTC", "100.00", "-6.2"),
		okEntryWithChange(models.ProviderCoinGecko, "ETH", "3000.00", "4.9"),
		okEntryWithChange(models.ProviderCoinGecko, "SOL", "150.00", "7.1"),
	}}

	alerts := Screen(snap, decimal.RequireFromString("5.0"))
	require.Len(t, alerts, 2)

	assert.Equal(t, "BTC", alerts[0].Instrument)
	assert.True(t, alerts[0].PercentChange.Equal(decimal.RequireFromString("-6.2")), "alert keeps the signed change")
	assert.Equal(t, "SOL", alerts[1].Instrument)
	assert.True(t, alerts[0].Threshold.Equal(decimal.RequireFromString("5.0")))
}

func TestScreen_ExactThresholdDoesNotAlert(t *testing.T) {
	snap := &models.Snapshot{Entries: []models.Entry{
		okEntryWithChange(models.ProviderCoinGecko, "BTC", "100.00", "5.0"),
		okEntryWithChange(models.ProviderCoinGecko, "ETH", "3000.00", "-5.0"),
	}}

	assert.Empty(t, Screen(snap, decimal.RequireFromString("5.0")))
}

func TestScreen_MissingChangeFieldExcluded(t *testing.T) {
	snap := &models.Snapshot{Entries: []models.Entry{
		okEntry(models.ProviderStockIndex, "^NSEI", "24500.10"),
		okEntryWithChange(models.ProviderCoinGecko, "BTC", "100.00", "-6.2"),
	}}

	alerts := Screen(snap, decimal.RequireFromString("5.0"))
	require.Len(t, alerts, 1)
	assert.Equal(t, "BTC", alerts[0].Instrument)
}

func TestScreen_StaleAndFailedExcluded(t *testing.T) {
	change := decimal.RequireFromString("-9.9")
	staleReading := models.Reading{
		Instrument:       "BTC",
		Value:            decimal.RequireFromString("100.00"),
		Unit:             models.UnitCurrencyMajor,
		AsOf:             time.Now().UTC(),
		Source:           models.ProviderCoinGecko,
		PercentChange24h: &change,
	}
	snap := &models.Snapshot{Entries: []models.Entry{
		models.StaleEntry(staleReading, models.ErrTimeout),
		models.FailedEntry(models.ProviderBinance, "ETHUSDT", models.ErrUnreachable),
	}}

	assert.Empty(t, Screen(snap, decimal.RequireFromString("5.0")))
}

func TestScreen_Deterministic(t *testing.T) {
	snap := &models.Snapshot{Entries: []models.Entry{
		okEntryWithChange(models.ProviderCoinGecko, "BTC", "100.00", "-6.2"),
		okEntryWithChange(models.ProviderBinance, "ETHUSDT", "3000.00", "8.4"),
	}}
	threshold := decimal.RequireFromString("5.0")

	first := Screen(snap, threshold)
	second := Screen(snap, threshold)
	assert.Equal(t, first, second)
}
