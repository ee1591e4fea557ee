package catalog

import (
	"cmp"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Builder scans a migrations directory into a Catalog.
type Builder struct {
	fs         afero.Fs
	logger     zerolog.Logger
	extensions map[string]struct{}
}

// NewBuilder creates a Builder that recognizes files with the given
// extensions, plus extensionless files that have an executable bit set.
func NewBuilder(fs afero.Fs, logger zerolog.Logger, extensions []string) *Builder {
	exts := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Builder{
		fs: fs,
		logger: logger.With().
			Str("component", "catalog_builder").
			Logger(),
		extensions: exts,
	}
}

// Build returns every migration in dir in ascending sequence order. Entries
// that don't look like migrations are skipped. Nothing is returned if two
// migrations share a sequence.
func (b *Builder) Build(dir string) (*Catalog, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, &pathError{kind: ErrUnreadable, path: dir, err: err}
	}

	info, err := b.fs.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, &pathError{kind: ErrNotADirectory, path: dir, err: err}
	case err != nil:
		return nil, &pathError{kind: ErrUnreadable, path: dir, err: err}
	case !info.IsDir():
		return nil, &pathError{kind: ErrNotADirectory, path: dir}
	}

	entries, err := afero.ReadDir(b.fs, dir)
	if err != nil {
		return nil, &pathError{kind: ErrUnreadable, path: dir, err: err}
	}

	var migrations []Migration
	bySequence := map[uint64][]string{}
	for _, entry := range entries {
		m, ok := b.classify(dir, entry)
		if !ok {
			continue
		}
		migrations = append(migrations, m)
		bySequence[m.Sequence] = append(bySequence[m.Sequence], m.FileName)
	}

	var dupes []error
	for sequence, files := range bySequence {
		if len(files) > 1 {
			dupes = append(dupes, &DuplicateSequenceError{
				Sequence: sequence,
				Files:    files,
			})
		}
	}
	if len(dupes) > 0 {
		slices.SortFunc(dupes, func(a, b error) int {
			return cmp.Compare(a.(*DuplicateSequenceError).Sequence, b.(*DuplicateSequenceError).Sequence)
		})
		return nil, errors.Join(dupes...)
	}

	slices.SortFunc(migrations, func(a, b Migration) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})

	b.logger.Debug().
		Str("dir", dir).
		Int("migrations", len(migrations)).
		Msg("built migration catalog")

	return &Catalog{
		Dir:        dir,
		Migrations: migrations,
	}, nil
}

func (b *Builder) classify(dir string, entry os.FileInfo) (Migration, bool) {
	name := entry.Name()
	parsed, err := parseFileName(name)
	if err != nil {
		return Migration{}, false
	}

	path := filepath.Join(dir, name)
	info := entry
	if info.Mode()&os.ModeSymlink != 0 {
		resolved, err := b.fs.Stat(path)
		if err != nil {
			b.logger.Warn().
				Err(err).
				Str("file", name).
				Msg("skipping migration symlink that can't be resolved")
			return Migration{}, false
		}
		info = resolved
	}
	if info.IsDir() {
		return Migration{}, false
	}

	if parsed.hasExt {
		if _, ok := b.extensions[parsed.ext]; !ok {
			b.logger.Debug().
				Str("file", name).
				Msg("skipping file with unrecognized extension")
			return Migration{}, false
		}
	} else if info.Mode().Perm()&0o111 == 0 {
		b.logger.Debug().
			Str("file", name).
			Msg("skipping extensionless file that isn't executable")
		return Migration{}, false
	}

	return Migration{
		Sequence: parsed.sequence,
		Slug:     parsed.slug,
		ID:       FormatID(parsed.sequence, parsed.slug),
		Path:     path,
		FileName: name,
		Stem:     parsed.stem,
	}, true
}
