package eval

import (
	"runtime"
	"sync"

	"flapneat/internal/config"
	"flapneat/internal/env"
	"flapneat/internal/nn"
)

// Evaluator flies a single brain through private worlds, away from the
// shared training world
type Evaluator struct {
	cfg     *config.Config
	workers int
}

// NewEvaluator creates a new evaluator
func NewEvaluator(cfg *config.Config) *Evaluator {
	workers := cfg.Eval.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Evaluator{
		cfg:     cfg,
		workers: workers,
	}
}

// Run flies brain once on the course generated by seed
func (e *Evaluator) Run(brain *nn.Brain, seed int64) (env.EpisodeStats, error) {
	return e.fly(brain, seed, nil)
}

// RunWithReplay flies brain once and records every flap decision
func (e *Evaluator) RunWithReplay(brain *nn.Brain, seed int64) (*env.Replay, env.EpisodeStats, error) {
	replay := env.NewReplay(seed, e.cfg.Env)
	stats, err := e.fly(brain, seed, replay)
	if err != nil {
		return nil, stats, err
	}
	replay.SetFinalStats(stats)
	return replay, stats, nil
}

// Benchmark flies brain over every seed and aggregates the results. Each
// seed runs on its own clone so the episodes can share the worker pool.
func (e *Evaluator) Benchmark(brain *nn.Brain, seeds []int) (env.AggregatedStats, error) {
	episodes := make([]env.EpisodeStats, len(seeds))
	errs := make([]error, len(seeds))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)

	for i, seed := range seeds {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, b *nn.Brain, seed int64) {
			defer wg.Done()
			defer func() { <-sem }()
			episodes[i], errs[i] = e.Run(b, seed)
		}(i, brain.Clone(), int64(seed))
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return env.AggregatedStats{}, err
		}
	}
	return env.Aggregate(episodes), nil
}

func (e *Evaluator) fly(brain *nn.Brain, seed int64, replay *env.Replay) (env.EpisodeStats, error) {
	world := env.NewWorld(e.cfg.Env, seed)
	bird := env.NewBird(world, brain)
	threshold := e.cfg.Env.FlapThreshold

	for bird.Alive() {
		if e.cfg.Eval.TickCap > 0 && bird.Lifespan() >= e.cfg.Eval.TickCap {
			bird.Kill(env.DeathTimeout)
			break
		}
		world.Advance()
		decision, err := brain.FeedForward(bird.Sense())
		if err != nil {
			return env.EpisodeStats{}, err
		}
		if replay != nil {
			replay.Record(decision > threshold)
		}
		bird.Act(decision)
		bird.Update()
	}
	return bird.Episode(seed), nil
}
