package models

import "github.com/shopspring/decimal"

// SpreadReport holds min/max price statistics for one instrument across
// sources. Produced only when at least two distinct sources reported Ok
// readings; fewer would turn missing data into a fake "no arbitrage" signal.
type SpreadReport struct {
	Instrument string          `json:"instrument"`
	MinReading Reading         `json:"min_reading"`
	MaxReading Reading         `json:"max_reading"`
	Spread     decimal.Decimal `json:"spread"`

	// Sources in snapshot insertion order, not sorted. Consumers must not
	// assume an ordering beyond that.
	Sources []ProviderID `json:"contributing_sources"`
}

// VolatilityAlert flags an instrument whose 24h move exceeded the threshold.
// Transient: recomputed from the snapshot on every call, never persisted.
type VolatilityAlert struct {
	Instrument    string          `json:"instrument"`
	Source        ProviderID      `json:"source"`
	PercentChange decimal.Decimal `json:"percent_change"`
	Threshold     decimal.Decimal `json:"threshold_breached"`
}
