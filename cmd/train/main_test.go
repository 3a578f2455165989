package main

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flapneat/internal/config"
	"flapneat/internal/env"
	"flapneat/internal/eval"
	"flapneat/internal/ga"
	"flapneat/internal/logging"
	"flapneat/internal/storage"
)

func testTrainer(t *testing.T) *trainer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.GA.Population = 6
	cfg.Eval.TickCap = 200
	cfg.Eval.BenchmarkSeeds = []int{1, 2}
	cfg.Logging.ArtifactsDir = filepath.Join(dir, "artifacts")

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	world := env.NewWorld(cfg.Env, cfg.Seed)
	pop, err := ga.NewPopulation(cfg, world.Spawner(), rand.New(rand.NewSource(cfg.Seed)), ga.WithLogger(log))
	require.NoError(t, err)

	// Turn over one generation so there is a champion
	var report *ga.Report
	for i := 0; i < 1000 && report == nil; i++ {
		if world.Tick >= cfg.Eval.TickCap {
			world.KillAll(pop, env.DeathTimeout)
		}
		report, err = world.Step(pop)
		require.NoError(t, err)
	}
	require.NotNil(t, report)

	logger, err := logging.NewLogger("run", filepath.Join(dir, "run.csv"), filepath.Join(dir, "run.jsonl"), 1)
	require.NoError(t, err)
	logger.SetConsole(nil)

	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(context.Background()))

	return &trainer{cfg: cfg, pop: pop, evaluator: eval.NewEvaluator(cfg), logger: logger, store: store, log: log}
}

func TestBenchmarkKeepsMostRobustChampion(t *testing.T) {
	tr := testTrainer(t)
	champ := tr.pop.Champion()
	require.NotNil(t, champ)
	best := filepath.Join(tr.cfg.Logging.ArtifactsDir, "champion_best.json")

	assert.True(t, tr.benchmark(1, champ))
	assert.FileExists(t, best)
	assert.True(t, tr.benchmarked)

	// The same champion on the same seeds is no improvement
	require.NoError(t, os.Remove(best))
	assert.False(t, tr.benchmark(2, champ))
	assert.NoFileExists(t, best)
}

func TestAfterGenerationSavesAndArchives(t *testing.T) {
	tr := testTrainer(t)
	tr.cfg.Eval.BenchmarkEvery = 1
	tr.cfg.Logging.SaveChampionEvery = 1
	tr.cfg.Logging.ReplayEvery = 1

	tr.afterGeneration(context.Background(), 1)

	dir := tr.cfg.Logging.ArtifactsDir
	assert.FileExists(t, filepath.Join(dir, "champion_gen1.json"))
	assert.FileExists(t, filepath.Join(dir, "replay_gen1.json"))
	assert.FileExists(t, filepath.Join(dir, "champion_best.json"))

	_, ok, err := tr.store.LatestChampion(context.Background(), tr.pop.RunID())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDue(t *testing.T) {
	assert.True(t, due(10, 5))
	assert.False(t, due(11, 5))
	assert.False(t, due(10, 0))
}
