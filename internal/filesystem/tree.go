package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrExists is returned when creating a file that is already present.
var ErrExists = errors.New("file already exists")

type TreeNode interface {
	Create(fs afero.Fs, parent string) error
}

type Directory struct {
	Path     string      `json:"path"`
	Mode     os.FileMode `json:"mode"`
	Children []TreeNode  `json:"children"`
}

func (d *Directory) Create(fs afero.Fs, parent string) error {
	mode := d.Mode
	if mode == 0 {
		mode = 0o755
	}
	path := filepath.Join(parent, d.Path)
	if err := fs.MkdirAll(path, mode); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", path, err)
	}
	for _, c := range d.Children {
		if err := c.Create(fs, path); err != nil {
			return err
		}
	}
	return nil
}

// File is created exclusively: Create fails with ErrExists rather than
// overwriting an existing file.
type File struct {
	Path     string      `json:"path"`
	Mode     os.FileMode `json:"mode"`
	Contents []byte      `json:"contents"`
}

func (f *File) Create(fs afero.Fs, parent string) error {
	mode := f.Mode
	if mode == 0 {
		mode = 0o644
	}
	path := filepath.Join(parent, f.Path)
	out, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	} else if err != nil {
		return fmt.Errorf("failed to create file %q: %w", path, err)
	}
	if _, err := out.Write(f.Contents); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file %q: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close file %q: %w", path, err)
	}
	// The umask may have stripped bits from the requested mode.
	if err := fs.Chmod(path, mode); err != nil {
		return fmt.Errorf("failed to set mode on file %q: %w", path, err)
	}
	return nil
}
