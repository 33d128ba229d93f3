package analytics

import (
	"github.com/shopspring/decimal"

	"coincast/internal/domain/models"
)

// Screen flags Ok entries whose 24h percent change exceeds the threshold in
// absolute value. Entries without a percent-change field are excluded, not
// treated as 0% change: a spot-only source has nothing to say about
// volatility.
//
// Deterministic: same snapshot and threshold always yield the same alerts,
// in snapshot entry order.
func Screen(snap *models.Snapshot, threshold decimal.Decimal) []models.VolatilityAlert {
	if snap == nil {
		return nil
	}

	var alerts []models.VolatilityAlert
	for _, e := range snap.Entries {
		if e.Status != models.StatusOk || e.Reading == nil || e.Reading.PercentChange24h == nil {
			continue
		}
		pct := *e.Reading.PercentChange24h
		if pct.Abs().GreaterThan(threshold) {
			alerts = append(alerts, models.VolatilityAlert{
				Instrument:    e.Reading.Instrument,
				Source:        e.Reading.Source,
				PercentChange: pct,
				Threshold:     threshold,
			})
		}
	}
	return alerts
}
