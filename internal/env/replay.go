package env

import (
	"encoding/json"
	"os"
	"path/filepath"

	"flapneat/internal/config"
)

// Replay stores a deterministic flap trace for playback
type Replay struct {
	Seed       int64            `json:"seed"`
	Flaps      []bool           `json:"flaps"`
	FinalStats EpisodeStats     `json:"final_stats"`
	Config     config.EnvConfig `json:"config"`
}

// NewReplay creates a new replay recorder
func NewReplay(seed int64, cfg config.EnvConfig) *Replay {
	return &Replay{
		Seed:   seed,
		Flaps:  make([]bool, 0, 1024),
		Config: cfg,
	}
}

// Record adds one tick's decision to the replay
func (r *Replay) Record(flap bool) {
	r.Flaps = append(r.Flaps, flap)
}

// SetFinalStats sets the final episode statistics
func (r *Replay) SetFinalStats(stats EpisodeStats) {
	r.FinalStats = stats
}

// Save writes the replay to a file
func (r *Replay) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadReplay loads a replay from a file
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Playback re-flies the recorded trace in a fresh world, calling onTick
// after every tick, and returns the resulting stats
func (r *Replay) Playback(onTick func(w *World, b *Bird)) EpisodeStats {
	w := NewWorld(r.Config, r.Seed)
	b := NewBird(w, nil)

	for _, flap := range r.Flaps {
		if !b.Alive() {
			break
		}
		w.Advance()
		decision := 0.0
		if flap {
			decision = 1
		}
		b.Act(decision)
		b.Update()
		if onTick != nil {
			onTick(w, b)
		}
	}
	if b.Alive() {
		b.Kill(DeathTimeout)
	}
	return b.Episode(r.Seed)
}
