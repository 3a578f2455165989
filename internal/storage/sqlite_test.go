//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs", "archive.db")

	store, err := NewStore("sqlite", dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() {
		_ = CloseIfSupported(store)
	})

	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "archive.db")

	first := NewSQLiteStore(dbPath)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.SaveChampion(ctx, champion(t, "r", 4, 12)))
	require.NoError(t, first.Close())

	second := NewSQLiteStore(dbPath)
	require.NoError(t, second.Init(ctx))
	t.Cleanup(func() { _ = second.Close() })

	latest, ok, err := second.LatestChampion(ctx, "r")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, latest.Generation)
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "x.db"))
	_, _, err := store.Generations(context.Background(), "r")
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.Error(t, NewSQLiteStore("").Init(context.Background()))
}
