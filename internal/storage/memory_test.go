package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))
	exerciseStore(t, store)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.ErrorIs(t, store.SaveGeneration(ctx, summary("r", 1, 1)), ErrNotInitialized)
	assert.ErrorIs(t, store.SaveChampion(ctx, champion(t, "r", 1, 1)), ErrNotInitialized)
	_, _, err := store.Generations(ctx, "r")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, _, err = store.LatestChampion(ctx, "r")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.SaveGeneration(ctx, summary("r", 1, 1)))

	gens, _, err := store.Generations(ctx, "r")
	require.NoError(t, err)
	gens[0].BestFitness = 1000

	again, _, err := store.Generations(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 1.0, again[0].BestFitness)
}
