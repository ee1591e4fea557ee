package history_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/filemigrate/internal/history"
	"github.com/pgEdge/filemigrate/internal/testutils"
)

const historyPath = "/m/.history"

func TestStoreLoad(t *testing.T) {
	t.Run("missing file is empty history", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/m", 0o755))

		store := history.NewStore(fs, historyPath, testutils.Logger(t))
		require.NoError(t, store.Load())
		assert.Zero(t, store.Len())
		_, ok := store.Baseline()
		assert.False(t, ok)

		exists, err := afero.Exists(fs, historyPath)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("ids, comments and timestamps", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, `
# applied by hand
001-init 2024-01-02T03:04:05Z

002-add-config
  003-seed  
`))

		entries := store.Entries()
		require.Len(t, entries, 3)

		appliedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		assert.Equal(t, history.Entry{
			ID:        "001-init",
			Sequence:  1,
			Position:  0,
			AppliedAt: &appliedAt,
		}, entries[0])
		assert.Equal(t, history.Entry{ID: "002-add-config", Sequence: 2, Position: 1}, entries[1])
		assert.Equal(t, history.Entry{ID: "003-seed", Sequence: 3, Position: 2}, entries[2])

		assert.True(t, store.Contains("002-add-config"))
		assert.False(t, store.Contains("2-add-config"))

		entry, ok := store.Get("003-seed")
		require.True(t, ok)
		assert.Equal(t, 2, entry.Position)
		_, ok = store.Get("004-missing")
		assert.False(t, ok)
	})

	t.Run("baseline directive", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, "001-init\nbaseline 001 squashed setup\nbaseline 002\n002-next\n"))

		baseline, ok := store.Baseline()
		require.True(t, ok)
		assert.Equal(t, history.Baseline{Sequence: 2}, baseline)
		assert.Equal(t, 2, store.Len())
	})

	for _, tc := range []struct {
		name     string
		contents string
		line     int
	}{
		{name: "not an id", contents: "001-init\ninit\n", line: 2},
		{name: "bad timestamp", contents: "001-init yesterday\n", line: 1},
		{name: "too many fields", contents: "\n001-init 2024-01-02T03:04:05Z extra\n", line: 2},
		{name: "duplicate id", contents: "001-init\n002-next\n001-init\n", line: 3},
		{name: "baseline without sequence", contents: "baseline\n", line: 1},
		{name: "baseline with bad sequence", contents: "baseline abc\n", line: 1},
	} {
		t.Run("corrupt "+tc.name, func(t *testing.T) {
			fs := writeHistory(t, tc.contents)
			store := history.NewStore(fs, historyPath, testutils.Logger(t))

			err := store.Load()
			assert.ErrorIs(t, err, history.ErrCorruptHistory)

			var corrupt *history.CorruptHistoryError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, tc.line, corrupt.Line)
			assert.Equal(t, historyPath, corrupt.Path)
		})
	}
}

func TestStoreAppend(t *testing.T) {
	t.Run("creates the file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/m", 0o755))

		store := history.NewStore(fs, historyPath, testutils.Logger(t))
		require.NoError(t, store.Load())

		entry, err := store.Append("001-init")
		require.NoError(t, err)
		assert.Equal(t, history.Entry{ID: "001-init", Sequence: 1, Position: 0}, entry)

		assert.Equal(t, "001-init\n", readHistory(t, fs))
	})

	t.Run("preserves existing lines", func(t *testing.T) {
		fs := writeHistory(t, "# notes\n001-init 2024-01-02T03:04:05Z")
		store := loadStore(t, fs)

		_, err := store.Append("002-next")
		require.NoError(t, err)
		assert.Equal(t, "# notes\n001-init 2024-01-02T03:04:05Z\n002-next\n", readHistory(t, fs))

		reloaded := loadStore(t, fs)
		assert.Equal(t, []string{"001-init", "002-next"}, ids(reloaded.Entries()))
	})

	t.Run("loads on first use", func(t *testing.T) {
		fs := writeHistory(t, "001-init\n")
		store := history.NewStore(fs, historyPath, testutils.Logger(t))

		_, err := store.Append("002-next")
		require.NoError(t, err)
		assert.Equal(t, "001-init\n002-next\n", readHistory(t, fs))
	})

	t.Run("rejects duplicates and invalid ids", func(t *testing.T) {
		fs := writeHistory(t, "001-init\n")
		store := loadStore(t, fs)

		_, err := store.Append("001-init")
		assert.ErrorIs(t, err, history.ErrAlreadyRecorded)

		_, err = store.Append("init")
		assert.Error(t, err)

		assert.Equal(t, "001-init\n", readHistory(t, fs))
	})

	t.Run("rolls back when the write fails", func(t *testing.T) {
		base := writeHistory(t, "001-init\n")
		store := history.NewStore(afero.NewReadOnlyFs(base), historyPath, testutils.Logger(t))
		require.NoError(t, store.Load())

		_, err := store.Append("002-next")
		assert.Error(t, err)
		assert.Equal(t, []string{"001-init"}, ids(store.Entries()))
		assert.False(t, store.Contains("002-next"))
		assert.Equal(t, "001-init\n", readHistory(t, base))

		err = store.AppendBaseline(history.Baseline{Sequence: 1})
		assert.Error(t, err)
		_, ok := store.Baseline()
		assert.False(t, ok)
	})

	t.Run("baseline", func(t *testing.T) {
		fs := writeHistory(t, "001-init\n002-next\n")
		store := loadStore(t, fs)

		require.NoError(t, store.AppendBaseline(history.Baseline{
			Sequence: 2,
			Summary:  "  squash\nearly setup ",
		}))
		assert.Equal(t, "001-init\n002-next\nbaseline 002 squash early setup\n", readHistory(t, fs))

		baseline, ok := loadStore(t, fs).Baseline()
		require.True(t, ok)
		assert.Equal(t, history.Baseline{Sequence: 2, Summary: "squash early setup"}, baseline)
	})
}

func writeHistory(t *testing.T, contents string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, historyPath, []byte(contents), 0o644))

	return fs
}

func loadStore(t *testing.T, fs afero.Fs) *history.Store {
	t.Helper()

	store := history.NewStore(fs, historyPath, testutils.Logger(t))
	require.NoError(t, store.Load())

	return store
}

func readHistory(t *testing.T, fs afero.Fs) string {
	t.Helper()

	contents, err := afero.ReadFile(fs, historyPath)
	require.NoError(t, err)

	return string(contents)
}

func ids(entries []history.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
