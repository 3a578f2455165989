package ga

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"flapneat/internal/config"
	"flapneat/internal/nn"
)

// Population owns the agent roster, the species list and the generation
// counter, and runs the generational state machine
type Population struct {
	size       int
	inputs     int
	hidden     []int
	ga         config.GAConfig
	policy     nn.MutationPolicy
	generation int

	agents  []Agent
	species []*Species
	nextID  int

	spawn        Spawner
	rng          *rand.Rand
	log          *slog.Logger
	runID        string
	loadMutation bool
}

// Option customises a Population
type Option func(*Population)

// WithLogger sets the structured logger used for pipeline events
func WithLogger(l *slog.Logger) Option {
	return func(p *Population) { p.log = l }
}

// WithRunID tags saved champions with a run identifier
func WithRunID(id string) Option {
	return func(p *Population) { p.runID = id }
}

// WithoutLoadMutation disables the diversity mutation applied to every
// copy of a loaded champion
func WithoutLoadMutation() Option {
	return func(p *Population) { p.loadMutation = false }
}

// Report summarises one natural selection pass
type Report struct {
	Generation      int     `json:"generation"`
	Agents          int     `json:"agents"`
	Species         int     `json:"species"`
	NewSpecies      int     `json:"new_species"`
	ExtinctCulled   int     `json:"extinct_culled"`
	StaleCulled     int     `json:"stale_culled"`
	StaleProtected  int     `json:"stale_protected"`
	BestFitness     float64 `json:"best_fitness"`
	MeanFitness     float64 `json:"mean_fitness"`
	StdFitness      float64 `json:"std_fitness"`
	ChampionFitness float64 `json:"champion_fitness"`
}

// NewPopulation creates cfg.GA.Population agents, each with a freshly
// initialised brain
func NewPopulation(cfg *config.Config, spawn Spawner, rng *rand.Rand, opts ...Option) (*Population, error) {
	if cfg.GA.Population <= 0 {
		return nil, fmt.Errorf("population size must be positive, got %d", cfg.GA.Population)
	}
	if spawn == nil {
		return nil, errors.New("population needs a spawner")
	}

	p := &Population{
		size:         cfg.GA.Population,
		inputs:       cfg.NN.Inputs,
		hidden:       append([]int(nil), cfg.NN.Hidden...),
		ga:           cfg.GA,
		policy:       MutationPolicy(cfg.Mutation),
		generation:   1,
		nextID:       1,
		spawn:        spawn,
		rng:          rng,
		log:          slog.Default(),
		loadMutation: true,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.agents = make([]Agent, p.size)
	for i := range p.agents {
		brain, err := nn.NewBrain(p.inputs, p.hidden, rng)
		if err != nil {
			return nil, fmt.Errorf("create brain: %w", err)
		}
		p.agents[i] = spawn(brain)
	}
	return p, nil
}

// Size returns the target population size
func (p *Population) Size() int {
	return p.size
}

// Generation returns the current generation, starting at 1
func (p *Population) Generation() int {
	return p.generation
}

// Agents returns the current roster
func (p *Population) Agents() []Agent {
	return p.agents
}

// Species returns the current species list
func (p *Population) Species() []*Species {
	return p.species
}

// RunID returns the run identifier, if any
func (p *Population) RunID() string {
	return p.runID
}

// Extinct reports whether every agent is dead
func (p *Population) Extinct() bool {
	for _, a := range p.agents {
		if a.Alive() {
			return false
		}
	}
	return true
}

// UpdateLiveAgents runs one tick for every live agent: sense, feed forward,
// act, update. With more than one worker configured the agents are spread
// over a bounded pool; each agent only touches its own state.
func (p *Population) UpdateLiveAgents() error {
	errs := make([]error, len(p.agents))

	if p.ga.Workers <= 1 {
		for i, a := range p.agents {
			if a.Alive() {
				errs[i] = think(a)
			}
		}
		return errors.Join(errs...)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.ga.Workers)
	for i, a := range p.agents {
		if !a.Alive() {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, a Agent) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = think(a)
		}(i, a)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Champion returns the champion of the species with the highest benchmark
// fitness, or nil before the first natural selection
func (p *Population) Champion() Agent {
	var best *Species
	for _, s := range p.species {
		if best == nil || s.BenchmarkFitness() > best.BenchmarkFitness() {
			best = s
		}
	}
	if best == nil {
		return nil
	}
	return best.Champion()
}

// NaturalSelection turns the finished generation into the next one:
// speciate, score, cull extinct and stale species, rank, reproduce.
func (p *Population) NaturalSelection() Report {
	report := Report{Generation: p.generation, Agents: len(p.agents)}

	assigned := p.speciate(&report)
	p.log.Debug("speciate", "generation", p.generation, "species", len(p.species), "new", report.NewSpecies)

	p.calculateFitness(&report)
	p.log.Debug("calculate fitness", "best", report.BestFitness, "mean", report.MeanFitness)

	p.killExtinctSpecies(&report)
	p.killStaleSpecies(assigned, &report)
	p.log.Debug("cull species", "extinct", report.ExtinctCulled, "stale", report.StaleCulled, "protected", report.StaleProtected)

	p.sortSpeciesByFitness()
	if champ := p.Champion(); champ != nil {
		report.ChampionFitness = champ.Fitness()
	}

	p.nextGen()
	report.Species = len(p.species)
	p.log.Debug("next generation", "generation", p.generation, "agents", len(p.agents), "species", len(p.species))
	return report
}

// speciate clears every species and re-clusters the roster, first match
// wins. Returns the species each agent joined, by roster index.
func (p *Population) speciate(report *Report) []*Species {
	for _, s := range p.species {
		s.clearMembers()
	}

	assigned := make([]*Species, len(p.agents))
	for i, a := range p.agents {
		for _, s := range p.species {
			if s.Similar(a.Brain()) {
				s.Add(a)
				assigned[i] = s
				break
			}
		}
		if assigned[i] == nil {
			s := NewSpecies(p.nextID, a, p.ga.CompatibilityThreshold)
			p.nextID++
			p.species = append(p.species, s)
			assigned[i] = s
			report.NewSpecies++
		}
	}
	return assigned
}

func (p *Population) calculateFitness(report *Report) {
	fitness := make([]float64, len(p.agents))
	for i, a := range p.agents {
		fitness[i] = a.Fitness()
	}
	if len(fitness) > 0 {
		report.BestFitness = floats.Max(fitness)
		report.MeanFitness = stat.Mean(fitness, nil)
	}
	if len(fitness) > 1 {
		report.StdFitness = stat.StdDev(fitness, nil)
	}

	for _, s := range p.species {
		s.ScoreFitness()
	}
}

func (p *Population) killExtinctSpecies(report *Report) {
	alive := p.species[:0]
	for _, s := range p.species {
		if len(s.Members()) == 0 {
			report.ExtinctCulled++
			continue
		}
		alive = append(alive, s)
	}
	p.species = alive
}

// killStaleSpecies removes species that stopped improving together with
// their members, never dropping below the configured species floor
func (p *Population) killStaleSpecies(assigned []*Species, report *Report) {
	culled := make(map[*Species]bool)
	for _, s := range p.species {
		if s.Staleness() < p.ga.StaleLimit {
			continue
		}
		if len(p.species)-len(culled) > p.ga.MinSpecies {
			culled[s] = true
			report.StaleCulled++
		} else {
			s.staleness = 0
			report.StaleProtected++
		}
	}
	if len(culled) == 0 {
		return
	}

	kept := p.species[:0]
	for _, s := range p.species {
		if !culled[s] {
			kept = append(kept, s)
		}
	}
	p.species = kept

	roster := p.agents[:0:0]
	for i, a := range p.agents {
		if !culled[assigned[i]] {
			roster = append(roster, a)
		}
	}
	p.agents = roster
}

func (p *Population) sortSpeciesByFitness() {
	for _, s := range p.species {
		s.SortMembers()
	}
	sort.SliceStable(p.species, func(i, j int) bool {
		return p.species[i].BenchmarkFitness() > p.species[j].BenchmarkFitness()
	})
}

// nextGen builds exactly size children: one unmutated champion clone per
// species, an equal share of offspring per species, and the best species
// filling whatever rounding left over
func (p *Population) nextGen() {
	children := make([]Agent, 0, p.size)

	for _, s := range p.species {
		if len(children) == p.size {
			break
		}
		children = append(children, p.spawn(s.Champion().Brain().Clone()))
	}

	n := len(p.species)
	if n > 0 {
		perSpecies := 0
		if p.size > n {
			perSpecies = (p.size - n) / n
		}
		for _, s := range p.species {
			for i := 0; i < perSpecies; i++ {
				children = append(children, p.spawn(s.Reproduce(p.ga.SurvivalThreshold, p.policy, p.rng)))
			}
		}
		for len(children) < p.size {
			children = append(children, p.spawn(p.species[0].Reproduce(p.ga.SurvivalThreshold, p.policy, p.rng)))
		}
	}

	p.agents = children
	p.generation++
}
