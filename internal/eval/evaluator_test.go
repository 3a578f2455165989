package eval

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flapneat/internal/config"
	"flapneat/internal/env"
	"flapneat/internal/nn"
)

func testBrain(t *testing.T, seed int64) *nn.Brain {
	t.Helper()
	b, err := nn.NewBrain(3, []int{4}, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return b
}

func TestRunIsDeterministic(t *testing.T) {
	e := NewEvaluator(config.Default())
	brain := testBrain(t, 1)

	a, err := e.Run(brain, 11)
	require.NoError(t, err)
	b, err := e.Run(brain, 11)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, env.DeathNone, a.Death)
	assert.Equal(t, int64(11), a.Seed)
}

func TestRunHonoursTickCap(t *testing.T) {
	cfg := config.Default()
	cfg.Eval.TickCap = 5
	e := NewEvaluator(cfg)

	stats, err := e.Run(testBrain(t, 2), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Ticks)
	assert.Equal(t, env.DeathTimeout, stats.Death)
}

func TestRunRejectsWrongTopology(t *testing.T) {
	e := NewEvaluator(config.Default())
	brain, err := nn.NewBrain(2, nil, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	_, err = e.Run(brain, 1)
	assert.ErrorIs(t, err, nn.ErrInputSize)

	_, err = e.Benchmark(brain, []int{1, 2})
	assert.ErrorIs(t, err, nn.ErrInputSize)
}

func TestReplayReproducesRun(t *testing.T) {
	e := NewEvaluator(config.Default())

	for seed := int64(1); seed <= 5; seed++ {
		replay, stats, err := e.RunWithReplay(testBrain(t, seed), seed)
		require.NoError(t, err)
		assert.Equal(t, stats, replay.FinalStats)
		// the fatal tick is recorded but not survived
		flaps := stats.Ticks
		if stats.Death != env.DeathTimeout {
			flaps++
		}
		assert.Len(t, replay.Flaps, flaps)

		assert.Equal(t, stats, replay.Playback(nil), "seed %d", seed)
	}
}

func TestBenchmarkMatchesSequentialRuns(t *testing.T) {
	cfg := config.Default()
	cfg.Eval.Workers = 3
	e := NewEvaluator(cfg)
	brain := testBrain(t, 9)
	seeds := []int{10, 11, 12, 13}

	agg, err := e.Benchmark(brain, seeds)
	require.NoError(t, err)

	var episodes []env.EpisodeStats
	for _, s := range seeds {
		ep, err := e.Run(brain, int64(s))
		require.NoError(t, err)
		episodes = append(episodes, ep)
	}
	assert.Equal(t, env.Aggregate(episodes), agg)
	assert.Equal(t, len(seeds), agg.NumEpisodes)
}

