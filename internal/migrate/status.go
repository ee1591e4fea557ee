package migrate

import (
	"context"
	"errors"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/history"
)

// StatusReport describes the migrations directory without changing it.
type StatusReport struct {
	Catalog *catalog.Catalog `json:"catalog"`
	// Reconciliation is nil when the history couldn't be loaded.
	Reconciliation *history.Reconciliation `json:"reconciliation,omitempty"`
	// Problems are history and ordering errors found while reading.
	Problems []error `json:"-"`
}

func (r *StatusReport) AppliedCount() int {
	if r.Reconciliation == nil {
		return 0
	}
	return r.Reconciliation.AppliedCount()
}

// Pending is every catalog migration when the history couldn't be loaded.
func (r *StatusReport) Pending() []catalog.Migration {
	if r.Reconciliation == nil {
		return r.Catalog.Migrations
	}
	return r.Reconciliation.Pending
}

// Err joins every problem in the report.
func (r *StatusReport) Err() error {
	return errors.Join(r.Problems...)
}

// Status compares the catalog with the history. It doesn't take the lock.
// Only catalog errors are returned; history problems are recorded in the
// report.
func (e *Engine) Status(ctx context.Context) (*StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cat, err := e.builder.Build(e.paths.MigrationsDir)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{Catalog: cat}
	if err := e.store.Load(); err != nil {
		e.logger.Debug().Err(err).Msg("failed to load history for status")
		report.Problems = append(report.Problems, err)
		return report, nil
	}

	r := e.store.Reconcile(cat)
	report.Reconciliation = r
	if err := r.OrderErr(); err != nil {
		report.Problems = append(report.Problems, err)
	}
	if err := r.OrphanErr(); err != nil {
		report.Problems = append(report.Problems, err)
	}

	return report, nil
}
