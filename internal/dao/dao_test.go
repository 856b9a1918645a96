package dao

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBEngineWithConfig_UnsupportedType(t *testing.T) {
	_, err := NewDBEngineWithConfig(DatabaseConfig{Type: "oracle"}, nil)
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestDao_MigrateOnce(t *testing.T) {
	cfg := DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "m.sqlite3"), AutoMigrate: true, TablePrefix: "t_"}
	db, err := NewDBEngineWithConfig(cfg, nil)
	require.NoError(t, err)
	d := New(db, WithConfig(&cfg))

	require.NoError(t, d.MigrateOnce("NoteContent"))
	require.NoError(t, d.MigrateOnce("NoteContent"))
	assert.True(t, db.Migrator().HasTable("t_note_content"))
	assert.False(t, db.Migrator().HasTable("t_task_content"))

	// unknown keys fail and are not cached
	assert.Error(t, d.MigrateOnce("Invoice"))
	assert.Error(t, d.MigrateOnce("Invoice"))
}

func TestDao_MigrateDisabled(t *testing.T) {
	cfg := DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "m.sqlite3")}
	db, err := NewDBEngineWithConfig(cfg, nil)
	require.NoError(t, err)
	d := New(db, WithConfig(&cfg))

	require.NoError(t, d.MigrateOnce("NoteContent"))
	assert.False(t, db.Migrator().HasTable("t_note_content"))
	assert.False(t, db.Migrator().HasTable("note_content"))
}
