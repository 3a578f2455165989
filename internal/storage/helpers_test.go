package storage

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"flapneat/internal/ga"
	"flapneat/internal/logging"
	"flapneat/internal/nn"
)

func champion(t *testing.T, runID string, gen int, fitness float64) ga.ChampionFile {
	t.Helper()
	b, err := nn.NewBrain(3, []int{2}, rand.New(rand.NewSource(int64(gen))))
	require.NoError(t, err)
	return ga.ChampionFile{RunID: runID, Generation: gen, Fitness: fitness, Brain: b.Record()}
}

func summary(runID string, gen int, best float64) logging.GenerationSummary {
	return logging.Summarize(runID, ga.Report{Generation: gen, Agents: 10, BestFitness: best}, gen/2)
}

// exerciseStore runs the behaviour every backend must share
func exerciseStore(t *testing.T, store Store) {
	ctx := t.Context()

	_, ok, err := store.Generations(ctx, "run-a")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = store.LatestChampion(ctx, "run-a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SaveGeneration(ctx, summary("run-a", 2, 20)))
	require.NoError(t, store.SaveGeneration(ctx, summary("run-a", 1, 10)))
	require.NoError(t, store.SaveGeneration(ctx, summary("run-a", 2, 25)))
	require.NoError(t, store.SaveGeneration(ctx, summary("run-b", 1, 99)))

	gens, ok, err := store.Generations(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, gens, 2)
	require.Equal(t, 1, gens[0].Generation)
	require.Equal(t, 25.0, gens[1].BestFitness)
	require.Equal(t, summary("run-a", 2, 25), gens[1])

	require.NoError(t, store.SaveChampion(ctx, champion(t, "run-a", 5, 50)))
	require.NoError(t, store.SaveChampion(ctx, champion(t, "run-a", 9, 40)))
	require.NoError(t, store.SaveChampion(ctx, champion(t, "run-a", 3, 80)))

	latest, ok, err := store.LatestChampion(ctx, "run-a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 9, latest.Generation)
	require.Equal(t, champion(t, "run-a", 9, 40).Brain, latest.Brain)

	bad := champion(t, "run-a", 10, 1)
	bad.Brain.Connections = bad.Brain.Connections[:1]
	require.ErrorIs(t, store.SaveChampion(ctx, bad), nn.ErrInvalidRecord)
}
