package migrate

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/filesystem"
	"github.com/pgEdge/filemigrate/internal/history"
)

type BaselineOptions struct {
	Sequence uint64
	Summary  string
	// Keep leaves the baselined migration files in place.
	Keep   bool
	DryRun bool
}

// BaselineReport describes a baseline that was, or in a dry run would be,
// recorded.
type BaselineReport struct {
	Baseline history.Baseline  `json:"baseline"`
	Previous *history.Baseline `json:"previous,omitempty"`
	DryRun   bool              `json:"dry_run"`
	// Covered are the catalog migrations at or below the baseline.
	Covered []catalog.Migration `json:"covered"`
	// Removed lists the files and asset directories that were deleted. In a
	// dry run it lists what would be deleted.
	Removed []filesystem.Removed `json:"removed,omitempty"`
}

// Baseline records that every migration up to and including opts.Sequence is
// applied, then deletes those migrations and their asset directories unless
// opts.Keep is set. Every covered migration must already be applied.
func (e *Engine) Baseline(ctx context.Context, opts BaselineOptions) (*BaselineReport, error) {
	var report *BaselineReport

	run := func() error {
		eval, err := e.evaluate()
		if err != nil {
			return err
		}
		report, err = e.planBaseline(eval, opts)
		if err != nil {
			return err
		}
		if opts.DryRun {
			if !opts.Keep {
				report.Removed, err = filesystem.StatPaths(e.fs, baselinePaths(report.Covered)...)
			}
			return err
		}

		if err := e.store.AppendBaseline(report.Baseline); err != nil {
			return err
		}
		e.logger.Info().
			Uint64("sequence", report.Baseline.Sequence).
			Int("covered", len(report.Covered)).
			Msg("recorded baseline")

		if opts.Keep {
			return nil
		}
		report.Removed, err = filesystem.RemovePaths(e.fs, baselinePaths(report.Covered)...)
		if err != nil {
			return fmt.Errorf("baseline was recorded but removing migrations failed: %w", err)
		}
		return nil
	}

	var err error
	if opts.DryRun {
		err = run()
	} else {
		err = e.withLock(ctx, run)
	}
	if report == nil {
		return nil, err
	}
	return report, err
}

func (e *Engine) planBaseline(eval *evaluation, opts BaselineOptions) (*BaselineReport, error) {
	target, ok := eval.catalog.FindSequence(opts.Sequence)
	if !ok {
		return nil, fmt.Errorf("%w: no migration with sequence %d", ErrInvalidBaseline, opts.Sequence)
	}

	report := &BaselineReport{
		Baseline: history.Baseline{
			Sequence: opts.Sequence,
			Summary:  opts.Summary,
		},
		DryRun: opts.DryRun,
	}
	if previous := eval.reconciliation.Baseline; previous != nil {
		if opts.Sequence < previous.Sequence {
			return nil, fmt.Errorf(
				"%w: cannot move baseline backward from %d to %d",
				ErrInvalidBaseline, previous.Sequence, opts.Sequence,
			)
		}
		report.Previous = previous
	}

	for _, m := range eval.catalog.Migrations {
		if m.Sequence > target.Sequence {
			break
		}
		if !eval.reconciliation.IsApplied(m.ID) {
			return nil, fmt.Errorf("%w: migration %s has not been applied", ErrInvalidBaseline, m.ID)
		}
		report.Covered = append(report.Covered, m)
	}

	return report, nil
}

// baselinePaths returns each migration file followed by its asset directory.
func baselinePaths(migrations []catalog.Migration) []string {
	var paths []string
	for _, m := range migrations {
		paths = append(paths, m.Path)
		if assets := filepath.Join(filepath.Dir(m.Path), m.Stem); assets != m.Path {
			paths = append(paths, assets)
		}
	}
	return paths
}
