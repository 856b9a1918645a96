package dao

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/haierkeys/content-revision-service/internal/domain"
	"github.com/haierkeys/content-revision-service/pkg/revision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteRepositories(t *testing.T) domain.RepositorySet {
	t.Helper()
	cfg := DatabaseConfig{
		Type:        "sqlite",
		Path:        filepath.Join(t.TempDir(), "db", "test.sqlite3"),
		AutoMigrate: true,
	}
	db, err := NewDBEngineWithConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewContentRepositories(New(db, WithConfig(&cfg), WithLedgerCodec(MustLedgerCodec(true))))
}

func newBadgerRepositories(t *testing.T) domain.RepositorySet {
	t.Helper()
	store, err := OpenBadger(BadgerConfig{InMemory: true}, MustLedgerCodec(false), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.Repositories()
}

func TestContentRepository_SQLite(t *testing.T) {
	runRepositoryContract(t, newSQLiteRepositories(t))
}

func TestContentRepository_Badger(t *testing.T) {
	runRepositoryContract(t, newBadgerRepositories(t))
}

func newContent(itemID int64, text string) *domain.Content {
	return &domain.Content{
		ItemID: itemID,
		Owner:  gofakeit.Username(),
		Ledger: domain.ContentLedger{
			Current: text,
			Base:    "",
			Revisions: []revision.Revision[string]{
				{ID: 1, Patch: "@@ -0,0 +1,5 @@\n+hello\n", CreatedAt: time.Now().UnixMilli(), Author: gofakeit.Username()},
			},
		},
	}
}

func runRepositoryContract(t *testing.T, repos domain.RepositorySet) {
	ctx := context.Background()
	notes, err := repos.For(domain.KindNote)
	require.NoError(t, err)
	tasks, err := repos.For(domain.KindTask)
	require.NoError(t, err)
	assert.Equal(t, domain.KindNote, notes.Kind())

	t.Run("create and get", func(t *testing.T) {
		in := newContent(1, gofakeit.Sentence(8))
		created, err := notes.Create(ctx, in)
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		assert.Equal(t, domain.KindNote, created.Kind)

		got, err := notes.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, in.ItemID, got.ItemID)
		assert.Equal(t, in.Owner, got.Owner)
		assert.Empty(t, cmp.Diff(in.Ledger, got.Ledger))
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := notes.GetByID(ctx, 987654)
		assert.ErrorIs(t, err, domain.ErrContentNotFound)
		assert.ErrorIs(t, notes.Delete(ctx, 987654), domain.ErrContentNotFound)
	})

	t.Run("save replaces text and ledger", func(t *testing.T) {
		created, err := notes.Create(ctx, newContent(2, "first"))
		require.NoError(t, err)

		created.Ledger = domain.ContentLedger{
			Current: "second",
			Base:    "first",
			Revisions: []revision.Revision[string]{
				{ID: 4, Patch: "p4", CreatedAt: 1, Author: "a"},
				{ID: 5, Patch: "p5", CreatedAt: 2, Author: "b"},
			},
		}
		require.NoError(t, notes.Save(ctx, created))

		got, err := notes.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(created.Ledger, got.Ledger))
		assert.Equal(t, int64(2), got.ItemID)
	})

	t.Run("kinds are isolated", func(t *testing.T) {
		created, err := tasks.Create(ctx, newContent(3, "task text"))
		require.NoError(t, err)

		list, total, err := notes.ListByItem(ctx, 3, 1, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, list)

		got, err := tasks.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.KindTask, got.Kind)
	})

	t.Run("list by item", func(t *testing.T) {
		var ids []int64
		for i := 0; i < 3; i++ {
			c, err := notes.Create(ctx, newContent(40, gofakeit.Word()))
			require.NoError(t, err)
			ids = append(ids, c.ID)
			time.Sleep(5 * time.Millisecond)
		}
		_, err := notes.Create(ctx, newContent(41, "other item"))
		require.NoError(t, err)

		page1, total, err := notes.ListByItem(ctx, 40, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, page1, 2)
		assert.Equal(t, ids[2], page1[0].ID)
		assert.Equal(t, ids[1], page1[1].ID)

		page2, _, err := notes.ListByItem(ctx, 40, 2, 2)
		require.NoError(t, err)
		require.Len(t, page2, 1)
		assert.Equal(t, ids[0], page2[0].ID)

		// saving moves the content to the front
		oldest, err := notes.GetByID(ctx, ids[0])
		require.NoError(t, err)
		require.NoError(t, notes.Save(ctx, oldest))
		page1, _, err = notes.ListByItem(ctx, 40, 1, 1)
		require.NoError(t, err)
		require.Len(t, page1, 1)
		assert.Equal(t, ids[0], page1[0].ID)
	})

	t.Run("list ids and delete", func(t *testing.T) {
		all, err := notes.ListIDs(ctx, 0, 1000)
		require.NoError(t, err)
		require.NotEmpty(t, all)
		assert.IsIncreasing(t, all)

		first, err := notes.ListIDs(ctx, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, all[:2], first)

		rest, err := notes.ListIDs(ctx, first[1], 1000)
		require.NoError(t, err)
		assert.Equal(t, all[2:], rest)

		require.NoError(t, notes.Delete(ctx, all[0]))
		_, err = notes.GetByID(ctx, all[0])
		assert.ErrorIs(t, err, domain.ErrContentNotFound)

		after, err := notes.ListIDs(ctx, 0, 1000)
		require.NoError(t, err)
		assert.Equal(t, all[1:], after)
	})
}

func TestRepositorySet_UnknownKind(t *testing.T) {
	repos := newBadgerRepositories(t)
	_, err := repos.For(domain.Kind("invoice"))
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
}
