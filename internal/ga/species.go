package ga

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"flapneat/internal/nn"
)

// Species is an ordered cluster of agents whose brains sit within the
// compatibility threshold of the species representative
type Species struct {
	ID int

	members   []Agent
	champion  Agent
	threshold float64

	// representative starts as the founder's brain and follows the champion
	representative *nn.Brain

	benchmark       float64
	championFitness float64
	scored          bool
	staleness       int
}

// NewSpecies founds a species around a single agent
func NewSpecies(id int, founder Agent, threshold float64) *Species {
	return &Species{
		ID:             id,
		members:        []Agent{founder},
		champion:       founder,
		threshold:      threshold,
		representative: founder.Brain(),
	}
}

// Similar reports whether brain is close enough to join this species.
// Brains with a different topology never match.
func (s *Species) Similar(brain *nn.Brain) bool {
	d, err := s.representative.Distance(brain)
	if err != nil {
		return false
	}
	return d < s.threshold
}

// Add appends a member without rescoring
func (s *Species) Add(a Agent) {
	s.members = append(s.members, a)
}

// Members returns the current member list
func (s *Species) Members() []Agent {
	return s.members
}

// Champion returns the best member of the last scoring pass
func (s *Species) Champion() Agent {
	return s.champion
}

// BenchmarkFitness is the mean member fitness of the last scoring pass
func (s *Species) BenchmarkFitness() float64 {
	return s.benchmark
}

// Staleness counts generations without champion improvement
func (s *Species) Staleness() int {
	return s.staleness
}

// ScoreFitness recomputes the benchmark fitness and champion from the
// current membership. Staleness grows unless the new champion beats the
// previous one.
func (s *Species) ScoreFitness() {
	if len(s.members) == 0 {
		return
	}

	fitness := make([]float64, len(s.members))
	best := 0
	for i, m := range s.members {
		fitness[i] = m.Fitness()
		if fitness[i] > fitness[best] {
			best = i
		}
	}
	s.benchmark = stat.Mean(fitness, nil)

	if !s.scored || fitness[best] > s.championFitness {
		s.staleness = 0
	} else {
		s.staleness++
	}
	s.scored = true
	s.champion = s.members[best]
	s.championFitness = fitness[best]
	s.representative = s.champion.Brain()
}

// SortMembers orders members by fitness, best first
func (s *Species) SortMembers() {
	sort.SliceStable(s.members, func(i, j int) bool {
		return s.members[i].Fitness() > s.members[j].Fitness()
	})
}

// Reproduce picks one parent from the surviving top fraction and returns
// a mutated clone of its brain. Members must be sorted.
func (s *Species) Reproduce(survival float64, policy nn.MutationPolicy, rng *rand.Rand) *nn.Brain {
	parent := RouletteSelect(SurvivalPool(s.members, survival), rng)
	if parent == nil {
		parent = s.champion
	}
	child := parent.Brain().Clone()
	child.Mutate(policy, rng)
	return child
}

func (s *Species) clearMembers() {
	s.members = s.members[:0:0]
}
