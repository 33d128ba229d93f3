package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProviderID identifies a registered external data source.
type ProviderID string

const (
	ProviderStockIndex ProviderID = "stockindex"
	ProviderCoinGecko  ProviderID = "coingecko"
	ProviderSentiment  ProviderID = "sentiment"
	ProviderBinance    ProviderID = "binance"
	ProviderKuCoin     ProviderID = "kucoin"
)

// Unit describes what a reading's value denominates.
type Unit string

const (
	UnitCurrencyMajor Unit = "currency_major"
	UnitCurrencyMinor Unit = "currency_minor"
	UnitCount         Unit = "count"
)

// Reading is the normalized result of one instrument from one provider.
// Value is decimal, never float: spreads at the cent/paisa level must not
// pick up binary rounding artifacts.
type Reading struct {
	Instrument string          `json:"instrument"`
	Value      decimal.Decimal `json:"value"`
	Unit       Unit            `json:"unit"`
	AsOf       time.Time       `json:"as_of"`
	Source     ProviderID      `json:"source"`

	// Optional enrichments. Not every source reports these; screening skips
	// readings that lack them instead of assuming zero.
	PercentChange24h *decimal.Decimal `json:"percent_change_24h,omitempty"`
	QuoteVolume24h   *decimal.Decimal `json:"quote_volume_24h,omitempty"`
	MarketCap        *decimal.Decimal `json:"market_cap,omitempty"`
	Label            string           `json:"label,omitempty"`
}

// Validate enforces the reading invariants: price-like values are
// non-negative and as_of never sits in the future.
func (r *Reading) Validate(now time.Time) error {
	if r.Instrument == "" {
		return fmt.Errorf("reading: empty instrument")
	}
	if r.Value.IsNegative() {
		return fmt.Errorf("reading %s: negative value %s", r.Instrument, r.Value)
	}
	if r.AsOf.After(now) {
		return fmt.Errorf("reading %s: as_of %s is in the future", r.Instrument, r.AsOf)
	}
	return nil
}

// FetchRequest identifies the instruments wanted from a single provider.
// Either an explicit symbol list or a ranked top-N request (crypto markets).
type FetchRequest struct {
	Symbols []string `json:"symbols,omitempty"`
	TopN    int      `json:"top_n,omitempty"`
}

// CacheKey is stable per (provider, request parameters) so that identical
// requests within a TTL window share one cached fetch.
func (fr FetchRequest) CacheKey(p ProviderID) string {
	k := string(p)
	for _, s := range fr.Symbols {
		k += "|" + s
	}
	if fr.TopN > 0 {
		k += fmt.Sprintf("|top%d", fr.TopN)
	}
	return k
}

// RankedInstrument names the synthetic snapshot key used for top-N requests,
// where the concrete instrument set is only known after the fetch.
func (fr FetchRequest) RankedInstrument() string {
	return fmt.Sprintf("top%d", fr.TopN)
}
