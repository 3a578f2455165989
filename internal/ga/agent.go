package ga

import "flapneat/internal/nn"

// Agent is a simulated individual driven by a Brain. The simulation owns
// sensing, physics and fitness; the population only routes the sensed
// vector through the Brain and hands the decision back.
//
// Implementations must be comparable (pointer receivers in practice).
type Agent interface {
	Brain() *nn.Brain
	Sense() []float64
	Act(decision float64)
	Update()
	Alive() bool
	Fitness() float64
}

// Spawner creates a fresh agent around the given Brain. The agent takes
// ownership of the Brain.
type Spawner func(brain *nn.Brain) Agent

// think runs one tick for a live agent
func think(a Agent) error {
	decision, err := a.Brain().FeedForward(a.Sense())
	if err != nil {
		return err
	}
	a.Act(decision)
	a.Update()
	return nil
}
