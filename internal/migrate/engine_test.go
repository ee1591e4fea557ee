package migrate_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/do"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/config"
	"github.com/pgEdge/filemigrate/internal/executor"
	"github.com/pgEdge/filemigrate/internal/filesystem"
	"github.com/pgEdge/filemigrate/internal/history"
	"github.com/pgEdge/filemigrate/internal/migrate"
	"github.com/pgEdge/filemigrate/internal/testutils"
)

type project struct {
	root       string
	migrations string
	output     bytes.Buffer
}

func newProject(t *testing.T) *project {
	t.Helper()

	root := t.TempDir()
	migrations := filepath.Join(root, "migrations")
	require.NoError(t, os.MkdirAll(migrations, 0o755))

	return &project{root: root, migrations: migrations}
}

// engine wires a fresh engine the same way the CLI does, so that each call
// behaves like a separate invocation.
func (p *project) engine(t *testing.T) *migrate.Engine {
	t.Helper()

	source, err := config.NewStructSource(config.Config{ProjectRoot: p.root})
	require.NoError(t, err)

	logger := testutils.Logger(t)
	i := do.New()
	t.Cleanup(func() { i.Shutdown() })

	config.Provide(i, source)
	do.ProvideValue(i, logger)
	filesystem.Provide(i)
	catalog.Provide(i)
	history.Provide(i)
	do.ProvideValue(i, executor.NewExecutor(logger, executor.Options{
		Stdout: &p.output,
		Stderr: &p.output,
	}))
	migrate.Provide(i)

	engine, err := do.Invoke[*migrate.Engine](i)
	require.NoError(t, err)

	return engine
}

func (p *project) script(t *testing.T, name, body string) string {
	t.Helper()

	return testutils.WriteScript(t, p.migrations, name, body)
}

// logScript appends the migration ID to ran.log in the project root.
func (p *project) logScript(t *testing.T, name string) string {
	t.Helper()

	return p.script(t, name, `echo "$MIGRATE_ID" >> "$MIGRATE_PROJECT_ROOT/ran.log"`)
}

func (p *project) ran(t *testing.T) string {
	t.Helper()

	return testutils.ReadFile(t, filepath.Join(p.root, "ran.log"))
}

func (p *project) historyPath() string {
	return filepath.Join(p.migrations, ".history")
}

func (p *project) history(t *testing.T) string {
	t.Helper()

	return testutils.ReadFile(t, p.historyPath())
}

func (p *project) writeHistory(t *testing.T, contents string) {
	t.Helper()

	testutils.WriteFile(t, p.migrations, ".history", contents)
}
