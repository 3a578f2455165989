package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"flapneat/internal/config"
	"flapneat/internal/env"
	"flapneat/internal/eval"
	"flapneat/internal/ga"
	"flapneat/internal/logging"
	"flapneat/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to config file (.yaml or .ini)")
	generations := flag.Int("generations", 1000, "number of generations to run")
	championPath := flag.String("champion", "", "seed the population from a saved champion")
	resume := flag.String("resume", "", "run id whose latest archived champion seeds the population")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewSlog(os.Stderr, cfg.Logging.Level)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, *generations, *championPath, *resume, log); err != nil {
		log.Error("training failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, generations int, championPath, resume string, log *slog.Logger) error {
	runID := logging.NewRunID()

	store, err := storage.NewStore(cfg.Storage.Kind, cfg.Storage.Path)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("init %s store: %w", cfg.Storage.Kind, err)
	}
	defer func() {
		if err := storage.CloseIfSupported(store); err != nil {
			log.Warn("failed to close store", "kind", cfg.Storage.Kind, "err", err)
		}
	}()

	fmt.Printf("Flappy NEAT Trainer - run %s\n", runID)
	fmt.Printf("Population: %d, Inputs: %d, Hidden: %v\n", cfg.GA.Population, cfg.NN.Inputs, cfg.NN.Hidden)
	fmt.Printf("Compatibility threshold: %.2f, Stale limit: %d, Store: %s\n",
		cfg.GA.CompatibilityThreshold, cfg.GA.StaleLimit, cfg.Storage.Kind)
	fmt.Println("---")

	rng := rand.New(rand.NewSource(cfg.Seed))
	world := env.NewWorld(cfg.Env, cfg.Seed)

	pop, err := ga.NewPopulation(cfg, world.Spawner(), rng, ga.WithLogger(log), ga.WithRunID(runID))
	if err != nil {
		return err
	}

	if championPath != "" {
		if err := pop.LoadChampion(championPath); err != nil {
			return err
		}
	}
	if resume != "" {
		rec, ok, err := store.LatestChampion(ctx, resume)
		switch {
		case err != nil:
			return err
		case !ok:
			log.Warn("no archived champion to resume from", "run_id", resume, "store", cfg.Storage.Kind)
		default:
			if err := pop.LoadChampionRecord(rec); err != nil {
				return err
			}
		}
	}

	evaluator := eval.NewEvaluator(cfg)

	logger, err := logging.NewLogger(runID, cfg.Logging.CSVPath, cfg.Logging.JSONPath, cfg.Logging.Every)
	if err != nil {
		return err
	}
	if err := logger.Init(); err != nil {
		return err
	}
	defer func() {
		if err := logger.Close(); err != nil {
			log.Warn("failed to close metrics log", "csv", cfg.Logging.CSVPath, "err", err)
		}
	}()

	tr := &trainer{cfg: cfg, pop: pop, evaluator: evaluator, logger: logger, store: store, log: log}

	startTime := time.Now()

	for pop.Generation() <= generations {
		if ctx.Err() != nil {
			log.Warn("interrupted", "generation", pop.Generation())
			break
		}

		if cfg.Eval.TickCap > 0 && world.Tick >= cfg.Eval.TickCap {
			killed := world.KillAll(pop, env.DeathTimeout)
			log.Debug("tick cap reached", "tick", world.Tick, "killed", killed)
		}

		report, err := world.Step(pop)
		if err != nil {
			return err
		}
		if report == nil {
			continue
		}

		gen := report.Generation
		summary := logging.Summarize(runID, *report, world.HighScore)
		wrote, err := logger.LogGeneration(summary)
		if err != nil {
			log.Warn("failed to log generation", "generation", gen, "err", err)
		}
		if wrote {
			if err := store.SaveGeneration(ctx, summary); err != nil {
				log.Warn("failed to archive generation", "generation", gen, "err", err)
			}
		}

		tr.afterGeneration(ctx, gen)
	}

	fmt.Println("---")
	fmt.Printf("Training complete! %d generations in %v, high score %d\n",
		pop.Generation()-1, time.Since(startTime).Round(time.Millisecond), world.HighScore)

	if pop.Champion() == nil {
		return nil
	}
	if err := pop.SaveChampion(cfg.Logging.ChampionPath); err != nil {
		return err
	}
	if rec, err := pop.ChampionRecord(); err == nil {
		if err := store.SaveChampion(ctx, rec); err != nil {
			log.Warn("failed to archive final champion", "err", err)
		}
	}
	return nil
}

// trainer holds what the per-generation housekeeping needs
type trainer struct {
	cfg       *config.Config
	pop       *ga.Population
	evaluator *eval.Evaluator
	logger    *logging.Logger
	store     storage.Store
	log       *slog.Logger

	bestRobust  float64
	benchmarked bool
}

// afterGeneration benchmarks, saves and replays the champion when due
func (t *trainer) afterGeneration(ctx context.Context, gen int) {
	champ := t.pop.Champion()
	if champ == nil {
		return
	}

	if due(gen, t.cfg.Eval.BenchmarkEvery) {
		t.benchmark(gen, champ)
	}

	if due(gen, t.cfg.Logging.SaveChampionEvery) {
		path := filepath.Join(t.cfg.Logging.ArtifactsDir, fmt.Sprintf("champion_gen%d.json", gen))
		if err := t.pop.SaveChampion(path); err != nil {
			t.log.Warn("failed to save champion", "path", path, "err", err)
		}
		if rec, err := t.pop.ChampionRecord(); err == nil {
			if err := t.store.SaveChampion(ctx, rec); err != nil {
				t.log.Warn("failed to archive champion", "generation", gen, "err", err)
			}
		}
	}

	if due(gen, t.cfg.Logging.ReplayEvery) {
		replay, stats, err := t.evaluator.RunWithReplay(champ.Brain(), t.cfg.Seed+int64(gen))
		if err != nil {
			t.log.Warn("replay failed", "generation", gen, "err", err)
			return
		}
		path := filepath.Join(t.cfg.Logging.ArtifactsDir, fmt.Sprintf("replay_gen%d.json", gen))
		if err := replay.Save(path); err != nil {
			t.log.Warn("failed to save replay", "path", path, "err", err)
			return
		}
		t.log.Info("saved replay", "path", path, "ticks", stats.Ticks, "pipes", stats.Pipes, "death", stats.Death)
	}
}

// benchmark flies the champion over the benchmark seeds and keeps the most
// robust one seen so far as champion_best.json. Returns whether it improved.
func (t *trainer) benchmark(gen int, champ ga.Agent) bool {
	agg, err := t.evaluator.Benchmark(champ.Brain(), t.cfg.Eval.BenchmarkSeeds)
	if err != nil {
		t.log.Warn("benchmark failed", "generation", gen, "err", err)
		return false
	}
	t.logger.LogBenchmark(gen, agg, t.cfg.Eval.RobustnessLambda)

	score := agg.RobustnessScore(t.cfg.Eval.RobustnessLambda)
	if t.benchmarked && score <= t.bestRobust {
		return false
	}
	t.benchmarked = true
	t.bestRobust = score

	rec, err := t.pop.ChampionRecord()
	if err != nil {
		return false
	}
	path := filepath.Join(t.cfg.Logging.ArtifactsDir, "champion_best.json")
	if err := ga.WriteChampion(path, rec); err != nil {
		t.log.Warn("failed to save best champion", "path", path, "err", err)
		return false
	}
	t.log.Info("new most robust champion", "generation", gen, "robust", score, "path", path)
	return true
}

func due(gen, every int) bool {
	return every > 0 && gen%every == 0
}
