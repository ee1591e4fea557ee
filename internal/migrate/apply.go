package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/executor"
	"github.com/pgEdge/filemigrate/internal/version"
)

// State is where an apply run ended.
type State string

const (
	StateIdle       State = "idle"
	StateEvaluating State = "evaluating"
	StateRunning    State = "running"
	StateHalted     State = "halted"
	StateCompleted  State = "completed"
)

type ApplyOptions struct {
	DryRun bool
	// OnStart is called before each migration is launched. It isn't called
	// for dry runs.
	OnStart func(m catalog.Migration, index, total int)
}

// ApplyReport describes an apply run.
type ApplyReport struct {
	RunID  string `json:"run_id"`
	DryRun bool   `json:"dry_run"`
	State  State  `json:"state"`
	// PreviouslyApplied counts migrations that were applied or baselined
	// before this run.
	PreviouslyApplied int `json:"previously_applied"`
	// Applied are the migrations that succeeded during this run, in order.
	Applied []executor.Result `json:"applied,omitempty"`
	// WouldApply is only populated for dry runs.
	WouldApply []executor.Result `json:"would_apply,omitempty"`
	// Failed is the migration that halted the run.
	Failed *executor.Result `json:"failed,omitempty"`
	// Unrecorded is a migration that succeeded but couldn't be written to
	// the history.
	Unrecorded *executor.Result `json:"unrecorded,omitempty"`
	// Skipped are the pending migrations that weren't attempted because the
	// run halted.
	Skipped   []catalog.Migration `json:"skipped,omitempty"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
}

// UpToDate is true when there was nothing to apply.
func (r *ApplyReport) UpToDate() bool {
	return r.State == StateCompleted &&
		len(r.Applied) == 0 &&
		len(r.WouldApply) == 0
}

// Apply runs every pending migration in order, recording each success in the
// history before the next one starts. The run stops at the first failure. The
// returned report is non-nil whenever the run got past evaluation, including
// when an error is returned.
func (e *Engine) Apply(ctx context.Context, opts ApplyOptions) (*ApplyReport, error) {
	report := &ApplyReport{
		RunID:     uuid.NewString(),
		DryRun:    opts.DryRun,
		State:     StateIdle,
		StartedAt: time.Now(),
	}
	logger := e.logger.With().
		Str("run_id", report.RunID).
		Bool("dry_run", opts.DryRun).
		Logger()

	if info, err := version.GetInfo(); err == nil {
		logger.Debug().
			Str("version", info.String()).
			Str("migrations_dir", e.paths.MigrationsDir).
			Msg("starting apply")
	}

	evaluate := func() (*evaluation, error) {
		report.State = StateEvaluating
		eval, err := e.evaluate()
		if err != nil {
			return nil, err
		}
		report.PreviouslyApplied = eval.reconciliation.AppliedCount()

		logger.Debug().
			Int("pending", len(eval.reconciliation.Pending)).
			Int("applied", report.PreviouslyApplied).
			Msg("evaluated migrations")

		return eval, nil
	}

	run := func(eval *evaluation) error {
		pending := eval.reconciliation.Pending
		for i, m := range pending {
			report.State = StateRunning

			if err := ctx.Err(); err != nil {
				report.State = StateHalted
				report.Skipped = pending[i:]
				return fmt.Errorf("apply interrupted before %s: %w", m.ID, err)
			}

			if opts.OnStart != nil && !opts.DryRun {
				opts.OnStart(m, i, len(pending))
			}
			result := e.executor.Run(ctx, executor.Request{
				Migration:     m,
				ProjectRoot:   e.paths.ProjectRoot,
				MigrationsDir: e.paths.MigrationsDir,
				DryRun:        opts.DryRun,
			})

			switch result.Outcome {
			case executor.OutcomeWouldApply:
				report.WouldApply = append(report.WouldApply, result)
				continue
			case executor.OutcomeFailed:
				report.State = StateHalted
				report.Failed = &result
				report.Skipped = pending[i+1:]
				logger.Error().
					Str("migration_id", m.ID).
					Str("reason", result.Reason()).
					Int("skipped", len(report.Skipped)).
					Msg("migration failed, halting")
				return &MigrationFailedError{Result: result}
			}

			if _, err := e.store.Append(m.ID); err != nil {
				report.State = StateHalted
				report.Unrecorded = &result
				report.Skipped = pending[i+1:]
				return fmt.Errorf("migration %s succeeded but was not recorded: %w", m.ID, err)
			}
			report.Applied = append(report.Applied, result)

			logger.Info().
				Str("migration_id", m.ID).
				Dur("duration", result.Duration).
				Msg("applied migration")
		}

		report.State = StateCompleted
		return nil
	}

	// The lock is only taken when something is pending, and the migrations
	// are evaluated again once it is held.
	eval, err := evaluate()
	switch {
	case err != nil:
	case opts.DryRun || len(eval.reconciliation.Pending) == 0:
		err = run(eval)
	default:
		err = e.withLock(ctx, func() error {
			eval, err := evaluate()
			if err != nil {
				return err
			}
			return run(eval)
		})
	}
	report.Duration = time.Since(report.StartedAt)

	if report.State == StateIdle || report.State == StateEvaluating {
		return nil, err
	}
	if report.UpToDate() {
		logger.Info().Msg("migrations are up to date")
	}

	return report, err
}
