package migrate

import (
	"errors"
	"fmt"

	"github.com/pgEdge/filemigrate/internal/executor"
)

var (
	ErrMigrationFailed    = errors.New("migration failed")
	ErrInvalidBaseline    = errors.New("invalid baseline")
	ErrInvalidDescription = errors.New("invalid description")
)

// MigrationFailedError carries the result of the migration that halted an
// apply run.
type MigrationFailedError struct {
	Result executor.Result
}

func (e *MigrationFailedError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrMigrationFailed, e.Result.MigrationID, e.Result.Reason())
}

func (e *MigrationFailedError) Is(target error) bool {
	return target == ErrMigrationFailed
}

func (e *MigrationFailedError) Unwrap() error {
	return e.Result.Err
}
