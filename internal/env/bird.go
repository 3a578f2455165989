package env

import "flapneat/internal/nn"

const (
	birdX    = 56.0
	birdY    = 206.0
	birdSize = 28.0

	// flapRelease is the fall speed at which a held flap may fire again
	flapRelease = 3.0
)

// Bird is a flapping agent. It implements ga.Agent.
type Bird struct {
	world *World
	brain *nn.Brain

	X, Y float64 // top-left corner of the hitbox
	Vel  float64

	flapping bool
	alive    bool
	lifespan int
	flaps    int
	death    DeathReason
	vision   []float64
}

// NewBird places a live bird at the start position
func NewBird(w *World, brain *nn.Brain) *Bird {
	return &Bird{
		world:  w,
		brain:  brain,
		X:      birdX,
		Y:      birdY,
		alive:  true,
		vision: []float64{0.5, 1, 0.5},
	}
}

// Brain returns the controlling network
func (b *Bird) Brain() *nn.Brain { return b.brain }

// Alive reports whether the bird is still flying
func (b *Bird) Alive() bool { return b.alive }

// Fitness is the number of ticks survived
func (b *Bird) Fitness() float64 { return float64(b.lifespan) }

// Lifespan returns ticks survived
func (b *Bird) Lifespan() int { return b.lifespan }

// Flaps returns how many flaps fired
func (b *Bird) Flaps() int { return b.flaps }

// Death returns why the bird died
func (b *Bird) Death() DeathReason { return b.death }

// Act flaps when the decision clears the configured threshold
func (b *Bird) Act(decision float64) {
	if decision > b.world.cfg.FlapThreshold {
		b.flap()
	}
}

func (b *Bird) flap() {
	if !b.flapping && !b.skyCollision() {
		b.flapping = true
		b.Vel = b.world.cfg.FlapImpulse
		b.flaps++
	}
	if b.Vel >= flapRelease {
		b.flapping = false
	}
}

// Update applies gravity or kills the bird on collision
func (b *Bird) Update() {
	if !b.alive {
		return
	}
	if reason := b.collision(); reason != DeathNone {
		b.alive = false
		b.death = reason
		b.flapping = false
		b.Vel = 0
		return
	}

	cfg := b.world.cfg
	b.Vel += cfg.Gravity
	b.Y += b.Vel
	if b.Vel > cfg.MaxFallSpeed {
		b.Vel = cfg.MaxFallSpeed
	}
	b.lifespan++
}

// Kill ends the bird's flight, e.g. when an episode hits its tick cap
func (b *Bird) Kill(reason DeathReason) {
	b.alive = false
	b.death = reason
}

func (b *Bird) skyCollision() bool {
	return b.Y < 0
}

func (b *Bird) collision() DeathReason {
	if b.Y+birdSize >= b.world.GroundY() {
		return DeathGround
	}
	p := b.world.ClosestPipe()
	if p == nil {
		return DeathNone
	}
	overlapX := b.X < p.X+p.Width && b.X+birdSize > p.X
	if overlapX && (b.Y < p.GapTop || b.Y+birdSize > p.GapBottom) {
		return DeathPipe
	}
	return DeathNone
}

// Episode summarises the flight so far
func (b *Bird) Episode(seed int64) EpisodeStats {
	return EpisodeStats{
		Ticks: b.lifespan,
		Pipes: b.world.Score,
		Flaps: b.flaps,
		Death: b.death,
		Seed:  seed,
	}
}
