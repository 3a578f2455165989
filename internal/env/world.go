package env

import (
	"math/rand"

	"flapneat/internal/config"
	"flapneat/internal/ga"
	"flapneat/internal/nn"
)

// Pipe is one obstacle pair: a top pipe ending at GapTop and a bottom pipe
// starting at GapBottom
type Pipe struct {
	X         float64
	Width     float64
	GapTop    float64
	GapBottom float64
	Passed    bool
}

// OffScreen reports whether the pipe has fully left the world
func (p *Pipe) OffScreen() bool {
	return p.X+p.Width < 0
}

// World is the side-scrolling obstacle course shared by every bird
type World struct {
	cfg config.EnvConfig

	Pipes     []*Pipe
	Tick      int
	Score     int // pipes passed this generation
	HighScore int

	spawnTimer int
	rng        *rand.Rand
}

// NewWorld creates an empty world; the pipe layout is driven by seed
func NewWorld(cfg config.EnvConfig, seed int64) *World {
	w := &World{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
	w.Reset()
	return w
}

// Reset clears pipes and the current score, keeping the high score
func (w *World) Reset() {
	w.Pipes = w.Pipes[:0]
	w.Tick = 0
	w.Score = 0
	w.spawnTimer = w.cfg.FirstSpawn
}

// GroundY is the y coordinate of the ground surface
func (w *World) GroundY() float64 {
	return float64(w.cfg.Height - w.cfg.GroundHeight)
}

// Spawner returns a ga.Spawner placing new birds into this world
func (w *World) Spawner() ga.Spawner {
	return func(brain *nn.Brain) ga.Agent {
		return NewBird(w, brain)
	}
}

// Advance spawns, scrolls and retires pipes for one tick
func (w *World) Advance() {
	if w.spawnTimer <= 0 {
		w.spawnPipe()
		w.spawnTimer = w.cfg.SpawnInterval
	}
	w.spawnTimer--
	w.Tick++

	kept := w.Pipes[:0]
	for _, p := range w.Pipes {
		p.X -= w.cfg.PipeSpeed
		if !p.Passed && p.X+p.Width < birdX {
			p.Passed = true
			w.Score++
			if w.Score > w.HighScore {
				w.HighScore = w.Score
			}
		}
		if !p.OffScreen() {
			kept = append(kept, p)
		}
	}
	w.Pipes = kept
}

func (w *World) spawnPipe() {
	margin := 50.0
	gap := float64(w.cfg.PipeGap)
	span := w.GroundY() - gap - 2*margin
	top := margin
	if span > 0 {
		top += w.rng.Float64() * span
	}
	w.Pipes = append(w.Pipes, &Pipe{
		X:         float64(w.cfg.Width),
		Width:     float64(w.cfg.PipeWidth),
		GapTop:    top,
		GapBottom: top + gap,
	})
}

// ClosestPipe returns the first pipe the birds have not passed yet
func (w *World) ClosestPipe() *Pipe {
	for _, p := range w.Pipes {
		if !p.Passed {
			return p
		}
	}
	return nil
}

// Step runs one simulation tick. While any bird lives the population is
// updated; once every bird is dead the course is cleared and a natural
// selection pass runs, whose report is returned.
func (w *World) Step(pop *ga.Population) (*ga.Report, error) {
	w.Advance()
	if !pop.Extinct() {
		return nil, pop.UpdateLiveAgents()
	}
	w.Reset()
	report := pop.NaturalSelection()
	return &report, nil
}

// KillAll ends the flight of every live bird in pop
func (w *World) KillAll(pop *ga.Population, reason DeathReason) int {
	killed := 0
	for _, a := range pop.Agents() {
		if b, ok := a.(*Bird); ok && b.Alive() {
			b.Kill(reason)
			killed++
		}
	}
	return killed
}
