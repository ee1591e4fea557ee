package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/filesystem"
	"github.com/pgEdge/filemigrate/internal/templates"
)

type CreateOptions struct {
	// Template defaults to templates.DefaultKey.
	Template    string
	Description string
}

type CreateReport struct {
	Migration catalog.Migration  `json:"migration"`
	Template  templates.Template `json:"template"`
}

// Create writes a new executable migration numbered after the highest
// existing sequence. The migrations directory is created if needed.
func (e *Engine) Create(opts CreateOptions) (*CreateReport, error) {
	tmpl, err := templates.Get(opts.Template)
	if err != nil {
		return nil, err
	}
	slug := catalog.Slugify(opts.Description)
	if slug == "" {
		return nil, fmt.Errorf("%w: %q must contain at least one letter or digit", ErrInvalidDescription, opts.Description)
	}

	cat, err := e.builder.Build(e.paths.MigrationsDir)
	if errors.Is(err, os.ErrNotExist) {
		cat = &catalog.Catalog{Dir: e.paths.MigrationsDir}
	} else if err != nil {
		return nil, err
	}

	sequence := cat.NextSequence()
	id := catalog.FormatID(sequence, slug)
	contents, err := tmpl.Render(templates.Data{
		ID:          id,
		Description: opts.Description,
	})
	if err != nil {
		return nil, err
	}

	fileName := id + "." + tmpl.Extension
	tree := &filesystem.Directory{
		Path: e.paths.MigrationsDir,
		Children: []filesystem.TreeNode{
			&filesystem.File{
				Path:     fileName,
				Mode:     0o755,
				Contents: contents,
			},
		},
	}
	if err := tree.Create(e.fs, ""); err != nil {
		return nil, err
	}

	m := catalog.Migration{
		Sequence: sequence,
		Slug:     slug,
		ID:       id,
		Path:     filepath.Join(e.paths.MigrationsDir, fileName),
		FileName: fileName,
		Stem:     id,
	}
	e.logger.Info().
		Str("migration_id", id).
		Str("template", tmpl.Key).
		Msg("created migration")

	return &CreateReport{
		Migration: m,
		Template:  tmpl,
	}, nil
}
