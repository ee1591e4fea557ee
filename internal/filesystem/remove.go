package filesystem

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// Removed describes a path deleted by RemovePaths.
type Removed struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// RemovePaths deletes each path, recursing into directories. Paths that don't
// exist are skipped. It stops at the first failure and returns what it removed
// up to that point.
func RemovePaths(fs afero.Fs, paths ...string) ([]Removed, error) {
	var removed []Removed
	for _, path := range paths {
		info, err := fs.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			return removed, fmt.Errorf("failed to stat %q: %w", path, err)
		}
		if err := fs.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("failed to remove %q: %w", path, err)
		}
		removed = append(removed, Removed{Path: path, IsDir: info.IsDir()})
	}
	return removed, nil
}

// StatPaths returns the paths that RemovePaths would delete.
func StatPaths(fs afero.Fs, paths ...string) ([]Removed, error) {
	var existing []Removed
	for _, path := range paths {
		info, err := fs.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		} else if err != nil {
			return existing, fmt.Errorf("failed to stat %q: %w", path, err)
		}
		existing = append(existing, Removed{Path: path, IsDir: info.IsDir()})
	}
	return existing, nil
}
