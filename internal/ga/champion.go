package ga

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"flapneat/internal/nn"
)

// ErrNoSpecies is returned when there is no champion to save yet
var ErrNoSpecies = errors.New("no species to take a champion from")

// ChampionFile is the on-disk form of a saved champion
type ChampionFile struct {
	RunID      string    `json:"run_id,omitempty"`
	Generation int       `json:"generation"`
	Fitness    float64   `json:"fitness"`
	SavedAt    time.Time `json:"saved_at"`
	Brain      nn.Record `json:"brain"`
}

// ChampionRecord snapshots the current champion
func (p *Population) ChampionRecord() (ChampionFile, error) {
	champ := p.Champion()
	if champ == nil {
		return ChampionFile{}, ErrNoSpecies
	}
	return ChampionFile{
		RunID:      p.runID,
		Generation: p.generation,
		Fitness:    champ.Fitness(),
		SavedAt:    time.Now().UTC(),
		Brain:      champ.Brain().Record(),
	}, nil
}

// SaveChampion writes the brain of the best species' champion to path
func (p *Population) SaveChampion(path string) error {
	rec, err := p.ChampionRecord()
	if err != nil {
		return err
	}
	if err := WriteChampion(path, rec); err != nil {
		return err
	}
	p.log.Info("saved champion", "path", path, "generation", rec.Generation, "fitness", rec.Fitness)
	return nil
}

// LoadChampion replaces the whole roster with copies of the brain stored at
// path, each mutated once for diversity unless disabled, and restarts at
// generation 1. On error the population is left untouched.
func (p *Population) LoadChampion(path string) error {
	rec, brain, err := ReadChampion(path)
	if err != nil {
		return err
	}
	if err := p.adopt(brain); err != nil {
		return fmt.Errorf("champion %s: %w", path, err)
	}
	p.log.Info("loaded champion", "path", path, "from_generation", rec.Generation, "fitness", rec.Fitness)
	return nil
}

// LoadChampionRecord is LoadChampion for a record that is already decoded,
// e.g. one read back from a run archive
func (p *Population) LoadChampionRecord(rec ChampionFile) error {
	brain, err := nn.FromRecord(rec.Brain)
	if err != nil {
		return fmt.Errorf("load champion: %w", err)
	}
	if err := p.adopt(brain); err != nil {
		return err
	}
	p.log.Info("loaded champion", "run_id", rec.RunID, "from_generation", rec.Generation, "fitness", rec.Fitness)
	return nil
}

func (p *Population) adopt(brain *nn.Brain) error {
	if brain.Inputs() != p.inputs {
		return fmt.Errorf("champion has %d inputs, population expects %d: %w", brain.Inputs(), p.inputs, nn.ErrTopologyMismatch)
	}
	if !slices.Equal(brain.Hidden(), p.hidden) {
		return fmt.Errorf("champion has hidden layers %v, population expects %v: %w", brain.Hidden(), p.hidden, nn.ErrTopologyMismatch)
	}

	agents := make([]Agent, p.size)
	for i := range agents {
		b := brain.Clone()
		if p.loadMutation {
			b.Mutate(p.policy, p.rng)
		}
		agents[i] = p.spawn(b)
	}

	p.agents = agents
	p.species = nil
	p.generation = 1
	return nil
}

// WriteChampion encodes rec as indented JSON, creating parent directories
func WriteChampion(path string, rec ChampionFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save champion: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("save champion: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save champion: %w", err)
	}
	return nil
}

// ReadChampion decodes and validates a champion file
func ReadChampion(path string) (ChampionFile, *nn.Brain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ChampionFile{}, nil, fmt.Errorf("load champion: %w", err)
	}
	return DecodeChampion(data)
}

// DecodeChampion validates an encoded champion and rebuilds its brain
func DecodeChampion(data []byte) (ChampionFile, *nn.Brain, error) {
	var rec ChampionFile
	if err := json.Unmarshal(data, &rec); err != nil {
		return ChampionFile{}, nil, fmt.Errorf("load champion: %w: %v", nn.ErrInvalidRecord, err)
	}
	brain, err := nn.FromRecord(rec.Brain)
	if err != nil {
		return ChampionFile{}, nil, fmt.Errorf("load champion: %w", err)
	}
	return rec, brain, nil
}
