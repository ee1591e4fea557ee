package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

type Logging struct {
	Level  string `koanf:"level" json:"level,omitempty"`
	Pretty bool   `koanf:"pretty" json:"pretty,omitempty"`
}

func (l Logging) validate() []error {
	var errs []error
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		errs = append(errs, fmt.Errorf("level: invalid log level %q: %w", l.Level, err))
	}
	return errs
}

var loggingDefault = Logging{
	Level:  "warn",
	Pretty: true,
}

type Executor struct {
	TimeoutSeconds     float64 `koanf:"timeout_seconds" json:"timeout_seconds,omitempty"`
	GracePeriodSeconds float64 `koanf:"grace_period_seconds" json:"grace_period_seconds,omitempty"`
	MaxOutput          string  `koanf:"max_output" json:"max_output,omitempty"`
}

func (e Executor) validate() []error {
	var errs []error
	if e.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("timeout_seconds: cannot be negative"))
	}
	if e.GracePeriodSeconds < 0 {
		errs = append(errs, errors.New("grace_period_seconds: cannot be negative"))
	}
	if e.MaxOutput != "" {
		if _, err := humanize.ParseBytes(e.MaxOutput); err != nil {
			errs = append(errs, fmt.Errorf("max_output: %w", err))
		}
	}
	return errs
}

// Timeout is zero when migrations may run indefinitely.
func (e Executor) Timeout() time.Duration {
	return seconds(e.TimeoutSeconds)
}

func (e Executor) GracePeriod() time.Duration {
	return seconds(e.GracePeriodSeconds)
}

// MaxOutputBytes is zero when captured output is unlimited.
func (e Executor) MaxOutputBytes() uint64 {
	if e.MaxOutput == "" {
		return 0
	}
	n, err := humanize.ParseBytes(e.MaxOutput)
	if err != nil {
		return 0
	}
	return n
}

var executorDefault = Executor{
	GracePeriodSeconds: 10,
}

// DefaultExtensions are the file extensions recognized as migrations in
// addition to extensionless executables.
var DefaultExtensions = []string{
	"sh", "bash", "zsh", "ksh", "fish",
	"ts", "mts", "js", "mjs", "cjs",
	"py", "rb", "pl", "php", "lua", "tcl", "awk", "exs", "nu",
}

type Config struct {
	ProjectRoot     string   `koanf:"project_root" json:"project_root,omitempty"`
	MigrationsDir   string   `koanf:"migrations_dir" json:"migrations_dir,omitempty"`
	HistoryFile     string   `koanf:"history_file" json:"history_file,omitempty"`
	Extensions      []string `koanf:"extensions" json:"extensions,omitempty"`
	LockWaitSeconds float64  `koanf:"lock_wait_seconds" json:"lock_wait_seconds,omitempty"`
	NoColor         bool     `koanf:"no_color" json:"no_color,omitempty"`
	Executor        Executor `koanf:"executor" json:"executor,omitzero"`
	Logging         Logging  `koanf:"logging" json:"logging,omitzero"`
}

func (c Config) Validate() error {
	var errs []error
	if c.ProjectRoot == "" {
		errs = append(errs, errors.New("project_root cannot be empty"))
	}
	if c.MigrationsDir == "" {
		errs = append(errs, errors.New("migrations_dir cannot be empty"))
	}
	if err := validateHistoryFile(c.HistoryFile); err != nil {
		errs = append(errs, fmt.Errorf("history_file: %w", err))
	}
	if len(c.Extensions) == 0 {
		errs = append(errs, errors.New("extensions cannot be empty"))
	}
	for _, ext := range c.Extensions {
		if ext == "" || strings.ContainsAny(ext, `./\`) {
			errs = append(errs, fmt.Errorf("extensions: invalid extension %q", ext))
		}
	}
	if c.LockWaitSeconds < 0 {
		errs = append(errs, errors.New("lock_wait_seconds cannot be negative"))
	}
	for _, err := range c.Executor.validate() {
		errs = append(errs, fmt.Errorf("executor.%w", err))
	}
	for _, err := range c.Logging.validate() {
		errs = append(errs, fmt.Errorf("logging.%w", err))
	}
	return errors.Join(errs...)
}

func validateHistoryFile(name string) error {
	switch {
	case name == "":
		return errors.New("cannot be empty")
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%q must be a file name, not a path", name)
	case name[0] >= '0' && name[0] <= '9':
		// Would be picked up as a migration by the catalog.
		return fmt.Errorf("%q cannot start with a digit", name)
	}
	return nil
}

func (c Config) LockWait() time.Duration {
	return seconds(c.LockWaitSeconds)
}

// seconds converts a possibly fractional number of seconds to a Duration.
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Paths holds the absolute locations derived from a Config.
type Paths struct {
	ProjectRoot   string
	MigrationsDir string
	HistoryFile   string
}

// Paths resolves the project root against the working directory and the
// migrations directory against the project root.
func (c Config) Paths() (Paths, error) {
	root, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return Paths{}, fmt.Errorf("failed to resolve project root %q: %w", c.ProjectRoot, err)
	}
	migrations := c.MigrationsDir
	if !filepath.IsAbs(migrations) {
		migrations = filepath.Join(root, migrations)
	}
	migrations = filepath.Clean(migrations)

	return Paths{
		ProjectRoot:   root,
		MigrationsDir: migrations,
		HistoryFile:   filepath.Join(migrations, c.HistoryFile),
	}, nil
}

func DefaultConfig() Config {
	return Config{
		ProjectRoot:   ".",
		MigrationsDir: "migrations",
		HistoryFile:   ".history",
		Extensions:    append([]string(nil), DefaultExtensions...),
		Executor:      executorDefault,
		Logging:       loggingDefault,
	}
}
