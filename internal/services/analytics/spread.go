package analytics

import (
	"coincast/internal/domain/models"
)

type spreadAcc struct {
	min     models.Reading
	max     models.Reading
	sources []models.ProviderID
	seen    map[models.ProviderID]struct{}
}

// ComputeSpreads calculates min/max/spread per instrument across sources.
//
// Only Ok readings participate; stale or failed entries would manufacture
// arbitrage out of outdated numbers. Instruments backed by fewer than two
// distinct sources are skipped entirely, not reported as zero spread.
// Contributing sources keep snapshot insertion order.
func ComputeSpreads(snap *models.Snapshot) []models.SpreadReport {
	if snap == nil {
		return nil
	}

	accs := make(map[string]*spreadAcc)
	var order []string

	for _, e := range snap.Entries {
		if e.Status != models.StatusOk || e.Reading == nil {
			continue
		}
		rd := *e.Reading

		acc, ok := accs[rd.Instrument]
		if !ok {
			acc = &spreadAcc{min: rd, max: rd, seen: make(map[models.ProviderID]struct{})}
			accs[rd.Instrument] = acc
			order = append(order, rd.Instrument)
		} else {
			if rd.Value.LessThan(acc.min.Value) {
				acc.min = rd
			}
			if rd.Value.GreaterThan(acc.max.Value) {
				acc.max = rd
			}
		}
		if _, dup := acc.seen[rd.Source]; !dup {
			acc.seen[rd.Source] = struct{}{}
			acc.sources = append(acc.sources, rd.Source)
		}
	}

	reports := make([]models.SpreadReport, 0, len(order))
	for _, instrument := range order {
		acc := accs[instrument]
		if len(acc.sources) < 2 {
			continue
		}
		reports = append(reports, models.SpreadReport{
			Instrument: instrument,
			MinReading: acc.min,
			MaxReading: acc.max,
			Spread:     acc.max.Value.Sub(acc.min.Value),
			Sources:    acc.sources,
		})
	}
	return reports
}
