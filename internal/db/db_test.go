package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MigratesIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flashcards.db")

	conn, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	conn, err = Open(path)
	require.NoError(t, err)
	defer conn.Close()

	var tables []string
	require.NoError(t, conn.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	assert.Equal(t, []string{"documents", "flashcards", "study_results", "study_sessions"}, tables)
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	defer conn.Close()

	var enabled int
	require.NoError(t, conn.Get(&enabled, `PRAGMA foreign_keys`))
	assert.Equal(t, 1, enabled)
}
