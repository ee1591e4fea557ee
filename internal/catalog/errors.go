package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotADirectory indicates that the migrations path is missing or isn't a
// directory. A missing path also matches fs.ErrNotExist.
var ErrNotADirectory = errors.New("migrations path is not a directory")

// ErrUnreadable indicates that the migrations directory or one of its entries
// couldn't be read.
var ErrUnreadable = errors.New("migrations directory is unreadable")

// ErrDuplicateSequence indicates that two migration files share a sequence
// number.
var ErrDuplicateSequence = errors.New("duplicate migration sequence")

// DuplicateSequenceError names every file that claims the same sequence.
type DuplicateSequenceError struct {
	Sequence uint64
	Files    []string
}

func (e *DuplicateSequenceError) Error() string {
	return fmt.Sprintf("duplicate migration sequence %d: %s", e.Sequence, strings.Join(e.Files, ", "))
}

func (e *DuplicateSequenceError) Is(target error) bool {
	return target == ErrDuplicateSequence
}

type pathError struct {
	kind error
	path string
	err  error
}

func (e *pathError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %s", e.kind, e.path)
	}
	return fmt.Sprintf("%s: %s: %v", e.kind, e.path, e.err)
}

func (e *pathError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}
