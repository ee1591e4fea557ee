package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/history"
)

func TestReconcile(t *testing.T) {
	t.Run("applied and pending", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, "001-init\n002-add-config\n"))
		cat := newCatalog("001-init", "002-add-config", "003-seed", "004-more")

		r := store.Reconcile(cat)
		require.NoError(t, r.Err())
		assert.Equal(t, []string{"001-init", "002-add-config"}, appliedIDs(r))
		assert.Equal(t, []string{"003-seed", "004-more"}, migrationIDs(r.Pending))
		assert.Empty(t, r.Orphans)
		assert.Equal(t, uint64(2), r.HighWater)
		assert.Equal(t, 2, r.AppliedCount())
		assert.True(t, r.IsApplied("002-add-config"))
		assert.False(t, r.IsApplied("003-seed"))
	})

	t.Run("empty", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, ""))

		r := store.Reconcile(newCatalog())
		require.NoError(t, r.Err())
		assert.Zero(t, r.AppliedCount())
		assert.Empty(t, r.Pending)
	})

	t.Run("pending below an applied sequence", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, "002-second\n"))
		cat := newCatalog("001-first", "002-second", "003-third")

		r := store.Reconcile(cat)
		assert.Equal(t, []string{"001-first", "003-third"}, migrationIDs(r.Pending))
		assert.Equal(t, []string{"001-first"}, migrationIDs(r.OutOfOrder))

		err := r.Err()
		assert.ErrorIs(t, err, history.ErrOutOfOrderMigration)
		assert.NotErrorIs(t, err, history.ErrOrphanedHistory)

		var outOfOrder *history.OutOfOrderError
		require.ErrorAs(t, err, &outOfOrder)
		assert.Equal(t, uint64(2), outOfOrder.HighWater)
		assert.ErrorContains(t, err, "001-first")
	})

	t.Run("history order disagrees with catalog", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, "002-second\n001-first\n"))
		cat := newCatalog("001-first", "002-second")

		r := store.Reconcile(cat)
		assert.Empty(t, r.Pending)
		assert.Equal(t, []string{"001-first"}, ids(r.Misordered))
		assert.ErrorIs(t, r.Err(), history.ErrOutOfOrderMigration)
	})

	t.Run("orphans", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, "001-init\n005-old\n"))
		cat := newCatalog("001-init", "006-new")

		r := store.Reconcile(cat)
		assert.Equal(t, []string{"005-old"}, ids(r.Orphans))
		assert.Equal(t, []string{"006-new"}, migrationIDs(r.Pending))
		assert.Empty(t, r.OutOfOrder)

		err := r.Err()
		assert.ErrorIs(t, err, history.ErrOrphanedHistory)
		assert.NotErrorIs(t, err, history.ErrOutOfOrderMigration)
		assert.ErrorContains(t, err, "005-old")
	})

	t.Run("renamed file is an orphan plus a pending migration", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, "001-init\n"))
		cat := newCatalog("001-setup")

		r := store.Reconcile(cat)
		assert.Equal(t, []string{"001-init"}, ids(r.Orphans))
		assert.Equal(t, []string{"001-setup"}, migrationIDs(r.Pending))
		assert.Empty(t, r.OutOfOrder)
	})

	t.Run("baseline", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, "001-init\n002-next\n003-more\nbaseline 002\n"))
		cat := newCatalog("002-next", "003-more", "004-latest")

		r := store.Reconcile(cat)
		require.NoError(t, r.Err(), "deleted baselined files are not orphans")
		assert.Equal(t, []string{"002-next", "003-more"}, appliedIDs(r))
		assert.Equal(t, []string{"004-latest"}, migrationIDs(r.Pending))
		assert.Equal(t, []string{"001-init"}, ids(r.Retired))
		assert.Equal(t, 3, r.AppliedCount())
		assert.Equal(t, &history.Baseline{Sequence: 2}, r.Baseline)
	})

	t.Run("file added below the baseline", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, "001-a\n005-b\nbaseline 005\n"))
		cat := newCatalog("001-a", "003-new", "005-b", "006-c")

		r := store.Reconcile(cat)
		assert.ErrorIs(t, r.Err(), history.ErrOutOfOrderMigration)
		assert.Equal(t, []string{"003-new", "006-c"}, migrationIDs(r.Pending))
		assert.Equal(t, []string{"003-new"}, migrationIDs(r.OutOfOrder))
		assert.Equal(t, 2, r.AppliedCount())
		assert.False(t, r.IsApplied("003-new"))
	})

	t.Run("file at the baseline sequence without an entry", func(t *testing.T) {
		store := loadStore(t, writeHistory(t, "001-a\n003-c\nbaseline 003 imported\n"))
		cat := newCatalog("003-replaced", "004-d")

		r := store.Reconcile(cat)
		assert.ErrorIs(t, r.Err(), history.ErrOutOfOrderMigration)
		assert.Equal(t, []string{"003-replaced"}, migrationIDs(r.OutOfOrder))
		assert.Equal(t, []string{"001-a", "003-c"}, ids(r.Retired))
		assert.Equal(t, uint64(3), r.HighWater)
	})
}

func newCatalog(ids ...string) *catalog.Catalog {
	cat := &catalog.Catalog{Dir: "/m"}
	for _, id := range ids {
		sequence, slug, err := catalog.ParseID(id)
		if err != nil {
			panic(err)
		}
		cat.Migrations = append(cat.Migrations, catalog.Migration{
			Sequence: sequence,
			Slug:     slug,
			ID:       id,
			Path:     "/m/" + id + ".sh",
			FileName: id + ".sh",
			Stem:     id,
		})
	}
	return cat
}

func appliedIDs(r *history.Reconciliation) []string {
	out := make([]string, len(r.Applied))
	for i, a := range r.Applied {
		out[i] = a.Migration.ID
	}
	return out
}

func migrationIDs(migrations []catalog.Migration) []string {
	out := make([]string, len(migrations))
	for i, m := range migrations {
		out[i] = m.ID
	}
	return out
}
