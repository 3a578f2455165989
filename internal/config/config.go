package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure
type Config struct {
	Seed     int64          `yaml:"seed"`
	NN       NNConfig       `yaml:"nn"`
	GA       GAConfig       `yaml:"ga"`
	Mutation MutationConfig `yaml:"mutation"`
	Env      EnvConfig      `yaml:"env"`
	Eval     EvalConfig     `yaml:"eval"`
	Logging  LogConfig      `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
}

// NNConfig defines the fixed brain topology
type NNConfig struct {
	Inputs int   `yaml:"inputs" ini:"inputs"`
	Hidden []int `yaml:"hidden" ini:"hidden" delim:","` // empty means inputs wire straight to the output
}

// GAConfig defines population and speciation parameters
type GAConfig struct {
	Population             int     `yaml:"population" ini:"population"`
	CompatibilityThreshold float64 `yaml:"compatibility_threshold" ini:"compatibility_threshold"`
	StaleLimit             int     `yaml:"stale_limit" ini:"stale_limit"`
	MinSpecies             int     `yaml:"min_species" ini:"min_species"`
	SurvivalThreshold      float64 `yaml:"survival_threshold" ini:"survival_threshold"` // top fraction eligible as parents
	Workers                int     `yaml:"workers" ini:"workers"`                       // <=1 updates agents sequentially
}

// MutationConfig defines the per-brain and per-connection weight mutation policy
type MutationConfig struct {
	Probability  float64 `yaml:"probability" ini:"probability"`
	ReplaceRate  float64 `yaml:"replace_rate" ini:"replace_rate"`
	PerturbScale float64 `yaml:"perturb_scale" ini:"perturb_scale"`
	WeightLimit  float64 `yaml:"weight_limit" ini:"weight_limit"`
}

// EnvConfig defines the flappy world and bird physics
type EnvConfig struct {
	Width         int     `yaml:"width" ini:"width"`
	Height        int     `yaml:"height" ini:"height"`
	GroundHeight  int     `yaml:"ground_height" ini:"ground_height"`
	PipeWidth     int     `yaml:"pipe_width" ini:"pipe_width"`
	PipeGap       int     `yaml:"pipe_gap" ini:"pipe_gap"`
	PipeSpeed     float64 `yaml:"pipe_speed" ini:"pipe_speed"`
	SpawnInterval int     `yaml:"spawn_interval" ini:"spawn_interval"`
	FirstSpawn    int     `yaml:"first_spawn" ini:"first_spawn"`
	Gravity       float64 `yaml:"gravity" ini:"gravity"`
	MaxFallSpeed  float64 `yaml:"max_fall_speed" ini:"max_fall_speed"`
	FlapImpulse   float64 `yaml:"flap_impulse" ini:"flap_impulse"`
	FlapThreshold float64 `yaml:"flap_threshold" ini:"flap_threshold"`
	VisionScale   float64 `yaml:"vision_scale" ini:"vision_scale"`
}

// EvalConfig defines champion benchmarking
type EvalConfig struct {
	TickCap        int   `yaml:"tick_cap" ini:"tick_cap"`
	BenchmarkEvery int   `yaml:"benchmark_every" ini:"benchmark_every"`
	BenchmarkSeeds []int `yaml:"benchmark_seeds" ini:"benchmark_seeds" delim:","`
	Workers        int   `yaml:"workers" ini:"workers"`

	// RobustnessLambda weighs the tick spread against the mean when ranking benchmarks
	RobustnessLambda float64 `yaml:"robustness_lambda" ini:"robustness_lambda"`
}

// LogConfig defines logging and artifact output
type LogConfig struct {
	Level             string `yaml:"level" ini:"level"`
	Every             int    `yaml:"every" ini:"every"`
	CSVPath           string `yaml:"csv_path" ini:"csv_path"`
	JSONPath          string `yaml:"json_path" ini:"json_path"`
	ChampionPath      string `yaml:"champion_path" ini:"champion_path"`
	SaveChampionEvery int    `yaml:"save_champion_every" ini:"save_champion_every"`
	ReplayEvery       int    `yaml:"replay_every" ini:"replay_every"`
	ArtifactsDir      string `yaml:"artifacts_dir" ini:"artifacts_dir"`
}

// StorageConfig selects the run archive backend
type StorageConfig struct {
	Kind string `yaml:"kind" ini:"kind"` // memory|sqlite
	Path string `yaml:"path" ini:"path"`
}

// Default returns a config with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a config file over Default() and returns a validated Config.
// Keys absent from the file keep their default; keys present are taken as
// written, zero included. Files ending in .ini are read as INI sections,
// anything else as YAML.
func Load(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".ini") {
		cfg, err = loadINI(path)
	} else {
		cfg, err = loadYAML(path)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func loadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func loadINI(path string) (*Config, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	cfg := Default()
	cfg.Seed = f.Section("").Key("seed").MustInt64(cfg.Seed)

	sections := []struct {
		name string
		dst  any
	}{
		{"nn", &cfg.NN},
		{"ga", &cfg.GA},
		{"mutation", &cfg.Mutation},
		{"env", &cfg.Env},
		{"eval", &cfg.Eval},
		{"logging", &cfg.Logging},
		{"storage", &cfg.Storage},
	}
	for _, s := range sections {
		if err := f.Section(s.name).MapTo(s.dst); err != nil {
			return nil, fmt.Errorf("map [%s] section: %w", s.name, err)
		}
	}
	return cfg, nil
}

// applyDefaults fills zero fields. Only Default calls it, so a loaded file
// can still set a knob to zero.
func applyDefaults(cfg *Config) {
	if cfg.Seed == 0 {
		cfg.Seed = 1337
	}
	if cfg.NN.Inputs == 0 {
		cfg.NN.Inputs = 3
	}
	if cfg.GA.Population == 0 {
		cfg.GA.Population = 100
	}
	if cfg.GA.CompatibilityThreshold == 0 {
		cfg.GA.CompatibilityThreshold = 0.3
	}
	if cfg.GA.StaleLimit == 0 {
		cfg.GA.StaleLimit = 8
	}
	if cfg.GA.MinSpecies == 0 {
		cfg.GA.MinSpecies = 1
	}
	if cfg.GA.SurvivalThreshold == 0 {
		cfg.GA.SurvivalThreshold = 0.5
	}
	if cfg.Mutation.Probability == 0 {
		cfg.Mutation.Probability = 0.8
	}
	if cfg.Mutation.ReplaceRate == 0 {
		cfg.Mutation.ReplaceRate = 0.1
	}
	if cfg.Mutation.PerturbScale == 0 {
		cfg.Mutation.PerturbScale = 0.1
	}
	if cfg.Mutation.WeightLimit == 0 {
		cfg.Mutation.WeightLimit = 1
	}
	if cfg.Env.Width == 0 {
		cfg.Env.Width = 900
	}
	if cfg.Env.Height == 0 {
		cfg.Env.Height = 720
	}
	if cfg.Env.GroundHeight == 0 {
		cfg.Env.GroundHeight = 100
	}
	if cfg.Env.PipeWidth == 0 {
		cfg.Env.PipeWidth = 60
	}
	if cfg.Env.PipeGap == 0 {
		cfg.Env.PipeGap = 150
	}
	if cfg.Env.PipeSpeed == 0 {
		cfg.Env.PipeSpeed = 1
	}
	if cfg.Env.SpawnInterval == 0 {
		cfg.Env.SpawnInterval = 200
	}
	if cfg.Env.FirstSpawn == 0 {
		cfg.Env.FirstSpawn = 10
	}
	if cfg.Env.Gravity == 0 {
		cfg.Env.Gravity = 0.25
	}
	if cfg.Env.MaxFallSpeed == 0 {
		cfg.Env.MaxFallSpeed = 5
	}
	if cfg.Env.FlapImpulse == 0 {
		cfg.Env.FlapImpulse = -5
	}
	if cfg.Env.FlapThreshold == 0 {
		cfg.Env.FlapThreshold = 0.73
	}
	if cfg.Env.VisionScale == 0 {
		cfg.Env.VisionScale = 500
	}
	if cfg.Eval.TickCap == 0 {
		cfg.Eval.TickCap = 20000
	}
	if cfg.Eval.BenchmarkEvery == 0 {
		cfg.Eval.BenchmarkEvery = 10
	}
	if len(cfg.Eval.BenchmarkSeeds) == 0 {
		cfg.Eval.BenchmarkSeeds = []int{2000, 2001, 2002, 2003, 2004}
	}
	if cfg.Eval.RobustnessLambda == 0 {
		cfg.Eval.RobustnessLambda = 1
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Every == 0 {
		cfg.Logging.Every = 1
	}
	if cfg.Logging.CSVPath == "" {
		cfg.Logging.CSVPath = "runs/run.csv"
	}
	if cfg.Logging.JSONPath == "" {
		cfg.Logging.JSONPath = "runs/run.jsonl"
	}
	if cfg.Logging.ChampionPath == "" {
		cfg.Logging.ChampionPath = "artifacts/champion.json"
	}
	if cfg.Logging.SaveChampionEvery == 0 {
		cfg.Logging.SaveChampionEvery = 25
	}
	if cfg.Logging.ReplayEvery == 0 {
		cfg.Logging.ReplayEvery = 50
	}
	if cfg.Logging.ArtifactsDir == "" {
		cfg.Logging.ArtifactsDir = "artifacts"
	}
	if cfg.Storage.Kind == "" {
		cfg.Storage.Kind = "memory"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "runs/archive.db"
	}
}

// Validate rejects configurations the engine cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.NN.Inputs < 0 {
		errs = append(errs, fmt.Errorf("nn.inputs must not be negative, got %d", c.NN.Inputs))
	}
	for i, size := range c.NN.Hidden {
		if size <= 0 {
			errs = append(errs, fmt.Errorf("nn.hidden[%d] must be positive, got %d", i, size))
		}
	}
	if c.GA.Population <= 0 {
		errs = append(errs, fmt.Errorf("ga.population must be positive, got %d", c.GA.Population))
	}
	if c.GA.CompatibilityThreshold < 0 {
		errs = append(errs, fmt.Errorf("ga.compatibility_threshold must not be negative"))
	}
	if c.GA.MinSpecies < 1 {
		errs = append(errs, fmt.Errorf("ga.min_species must be at least 1, got %d", c.GA.MinSpecies))
	}
	if c.GA.SurvivalThreshold <= 0 || c.GA.SurvivalThreshold > 1 {
		errs = append(errs, fmt.Errorf("ga.survival_threshold must be in (0, 1], got %g", c.GA.SurvivalThreshold))
	}
	if c.Mutation.Probability < 0 || c.Mutation.Probability > 1 {
		errs = append(errs, fmt.Errorf("mutation.probability must be in [0, 1], got %g", c.Mutation.Probability))
	}
	if c.Mutation.ReplaceRate < 0 || c.Mutation.ReplaceRate > 1 {
		errs = append(errs, fmt.Errorf("mutation.replace_rate must be in [0, 1], got %g", c.Mutation.ReplaceRate))
	}
	if c.Env.GroundHeight >= c.Env.Height {
		errs = append(errs, fmt.Errorf("env.ground_height %d leaves no sky in height %d", c.Env.GroundHeight, c.Env.Height))
	}
	switch c.Storage.Kind {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("storage.kind %q is not memory or sqlite", c.Storage.Kind))
	}
	return errors.Join(errs...)
}
