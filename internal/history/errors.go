package history

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pgEdge/filemigrate/internal/catalog"
)

var (
	ErrCorruptHistory      = errors.New("corrupt history file")
	ErrOutOfOrderMigration = errors.New("out-of-order migration")
	ErrOrphanedHistory     = errors.New("orphaned history entry")
	ErrAlreadyRecorded     = errors.New("migration is already recorded in history")
	ErrLocked              = errors.New("history is locked by another process")
)

// CorruptHistoryError identifies the first line of the history file that
// couldn't be parsed.
type CorruptHistoryError struct {
	Path   string
	Line   int
	Text   string
	Reason string
}

func (e *CorruptHistoryError) Error() string {
	return fmt.Sprintf("corrupt history file %s: line %d %q: %s", e.Path, e.Line, e.Text, e.Reason)
}

func (e *CorruptHistoryError) Is(target error) bool {
	return target == ErrCorruptHistory
}

// OutOfOrderError describes migrations that can't be applied without breaking
// the history's ordering.
type OutOfOrderError struct {
	// HighWater is the highest sequence that's already applied or baselined.
	HighWater uint64
	// Pending are migrations that haven't been applied but sort below
	// HighWater or are covered by the baseline.
	Pending []catalog.Migration
	// Misordered are history entries that were recorded after an entry with
	// a higher sequence.
	Misordered []Entry
}

func (e *OutOfOrderError) Error() string {
	var problems []string
	if len(e.Pending) > 0 {
		ids := make([]string, len(e.Pending))
		for i, m := range e.Pending {
			ids[i] = m.ID
		}
		problems = append(problems, fmt.Sprintf(
			"pending %s sorts at or below sequence %d which is already applied; renumber above %d",
			strings.Join(ids, ", "), e.HighWater, e.HighWater,
		))
	}
	if len(e.Misordered) > 0 {
		ids := make([]string, len(e.Misordered))
		for i, entry := range e.Misordered {
			ids[i] = entry.ID
		}
		problems = append(problems, fmt.Sprintf(
			"history records %s after a higher sequence",
			strings.Join(ids, ", "),
		))
	}
	return fmt.Sprintf("%s: %s", ErrOutOfOrderMigration, strings.Join(problems, "; "))
}

func (e *OutOfOrderError) Is(target error) bool {
	return target == ErrOutOfOrderMigration
}

// OrphanError lists history entries that have no migration file.
type OrphanError struct {
	Entries []Entry
}

func (e *OrphanError) Error() string {
	ids := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		ids[i] = entry.ID
	}
	return fmt.Sprintf("%s: no migration file for %s", ErrOrphanedHistory, strings.Join(ids, ", "))
}

func (e *OrphanError) Is(target error) bool {
	return target == ErrOrphanedHistory
}
