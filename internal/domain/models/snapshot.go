package models

import "time"

// EntryStatus is the per-entry outcome inside a Snapshot.
type EntryStatus string

const (
	StatusOk     EntryStatus = "ok"
	StatusStale  EntryStatus = "stale"
	StatusFailed EntryStatus = "failed"
)

// InstrumentKey addresses one snapshot entry: the same instrument quoted by
// two sources yields two keys.
type InstrumentKey struct {
	Source     ProviderID `json:"source"`
	Instrument string     `json:"instrument"`
}

// Entry is one (key, reading, status) row. Reading is nil only when Status
// is failed; a stale entry still carries the last known reading.
type Entry struct {
	Key     InstrumentKey `json:"key"`
	Reading *Reading      `json:"reading,omitempty"`
	Status  EntryStatus   `json:"status"`
	Reason  ErrorKind     `json:"reason,omitempty"`
}

// Snapshot is a complete point-in-time view over every requested key.
// Entries preserve request order; no key is ever silently dropped, even on
// total fetch failure.
type Snapshot struct {
	TakenAt time.Time `json:"taken_at"`
	Entries []Entry   `json:"entries"`
}

// OkEntry returns an Ok entry for a live reading.
func OkEntry(r Reading) Entry {
	return Entry{
		Key:     InstrumentKey{Source: r.Source, Instrument: r.Instrument},
		Reading: &r,
		Status:  StatusOk,
	}
}

// StaleEntry wraps an expired but still displayable reading whose refresh
// failed for the given reason.
func StaleEntry(r Reading, reason ErrorKind) Entry {
	return Entry{
		Key:     InstrumentKey{Source: r.Source, Instrument: r.Instrument},
		Reading: &r,
		Status:  StatusStale,
		Reason:  reason,
	}
}

// FailedEntry records a key that produced no reading this cycle.
func FailedEntry(source ProviderID, instrument string, reason ErrorKind) Entry {
	return Entry{
		Key:    InstrumentKey{Source: source, Instrument: instrument},
		Status: StatusFailed,
		Reason: reason,
	}
}

// MarkStale downgrades every non-failed entry to stale. Used when serving a
// rehydrated snapshot from a previous process before the first live refresh.
func (s *Snapshot) MarkStale() {
	for i := range s.Entries {
		if s.Entries[i].Status == StatusOk {
			s.Entries[i].Status = StatusStale
		}
	}
}

// Counts returns per-status totals, mostly for logging and metrics.
func (s *Snapshot) Counts() (ok, stale, failed int) {
	for _, e := range s.Entries {
		switch e.Status {
		case StatusOk:
			ok++
		case StatusStale:
			stale++
		default:
			failed++
		}
	}
	return
}
