package history

import (
	"errors"

	"github.com/pgEdge/filemigrate/internal/catalog"
)

// AppliedMigration pairs a catalog migration with its history entry.
type AppliedMigration struct {
	Migration catalog.Migration `json:"migration"`
	Entry     Entry             `json:"entry"`
}

// Reconciliation compares a catalog with the history.
type Reconciliation struct {
	// Applied is in history order.
	Applied []AppliedMigration `json:"applied"`
	// Pending is in catalog order and includes anything in OutOfOrder.
	Pending []catalog.Migration `json:"pending"`
	// Retired are history entries covered by the baseline whose migration
	// files have been removed.
	Retired []Entry `json:"retired"`
	// Orphans are history entries above the baseline with no migration file.
	Orphans []Entry `json:"orphans"`
	// OutOfOrder are pending migrations that sort below HighWater or are
	// covered by the baseline. A baseline is only recorded once everything it
	// covers has run, so such a file was added afterwards.
	OutOfOrder []catalog.Migration `json:"out_of_order"`
	// Misordered are applied entries recorded after a higher sequence.
	Misordered []Entry `json:"misordered"`
	// HighWater is the highest applied or baselined sequence.
	HighWater uint64    `json:"high_water"`
	Baseline  *Baseline `json:"baseline,omitempty"`
}

// Reconcile classifies every catalog migration and history entry.
func (s *Store) Reconcile(cat *catalog.Catalog) *Reconciliation {
	r := &Reconciliation{}

	var baselineSeq uint64
	hasBaseline := s.baseline != nil
	if hasBaseline {
		b := *s.baseline
		r.Baseline = &b
		baselineSeq = b.Sequence
		r.HighWater = baselineSeq
	}
	covered := func(sequence uint64) bool {
		return hasBaseline && sequence <= baselineSeq
	}

	var maxSeen uint64
	for _, entry := range s.entries {
		m, ok := cat.Find(entry.ID)
		if !ok {
			if covered(entry.Sequence) {
				r.Retired = append(r.Retired, entry)
			} else {
				r.Orphans = append(r.Orphans, entry)
			}
			continue
		}
		r.Applied = append(r.Applied, AppliedMigration{Migration: m, Entry: entry})
		if entry.Sequence < maxSeen {
			r.Misordered = append(r.Misordered, entry)
		}
		maxSeen = max(maxSeen, entry.Sequence)
	}
	r.HighWater = max(r.HighWater, maxSeen)

	for _, m := range cat.Migrations {
		if s.Contains(m.ID) {
			continue
		}
		r.Pending = append(r.Pending, m)
		if m.Sequence < r.HighWater || covered(m.Sequence) {
			r.OutOfOrder = append(r.OutOfOrder, m)
		}
	}

	return r
}

// AppliedCount includes retired migrations.
func (r *Reconciliation) AppliedCount() int {
	return len(r.Applied) + len(r.Retired)
}

// IsApplied reports whether the migration with the given ID has a history
// entry.
func (r *Reconciliation) IsApplied(id string) bool {
	for _, a := range r.Applied {
		if a.Migration.ID == id {
			return true
		}
	}
	return false
}

// OrderErr returns an *OutOfOrderError if any migration breaks the ordering.
func (r *Reconciliation) OrderErr() error {
	if len(r.OutOfOrder) == 0 && len(r.Misordered) == 0 {
		return nil
	}
	return &OutOfOrderError{
		HighWater:  r.HighWater,
		Pending:    r.OutOfOrder,
		Misordered: r.Misordered,
	}
}

// OrphanErr returns an *OrphanError if history has entries with no file.
func (r *Reconciliation) OrphanErr() error {
	if len(r.Orphans) == 0 {
		return nil
	}
	return &OrphanError{Entries: r.Orphans}
}

// Err joins every problem found during reconciliation.
func (r *Reconciliation) Err() error {
	return errors.Join(r.OrderErr(), r.OrphanErr())
}
