package nn

import "math/rand"

// Connection is a directed weighted edge between two nodes of the same Brain.
// From and To are node ids and never change after creation.
type Connection struct {
	From   int
	To     int
	Weight float64
}

// MutationPolicy controls how weights change when a Brain mutates
type MutationPolicy struct {
	// Probability that a Mutate call touches the Brain at all
	Probability float64
	// ReplaceRate is the per-connection chance of a fresh uniform weight
	ReplaceRate float64
	// PerturbScale multiplies a standard normal draw added to the weight
	PerturbScale float64
	// WeightLimit clamps perturbed weights to [-limit, limit]; 0 disables clamping
	WeightLimit float64
}

// DefaultMutationPolicy returns the policy used when none is configured
func DefaultMutationPolicy() MutationPolicy {
	return MutationPolicy{
		Probability:  0.8,
		ReplaceRate:  0.1,
		PerturbScale: 0.1,
		WeightLimit:  1,
	}
}

// randomWeight draws a weight uniformly from [-1, 1]
func randomWeight(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

func (c *Connection) mutate(p MutationPolicy, rng *rand.Rand) {
	if rng.Float64() < p.ReplaceRate {
		c.Weight = randomWeight(rng)
		return
	}
	c.Weight += rng.NormFloat64() * p.PerturbScale
	if p.WeightLimit > 0 {
		if c.Weight > p.WeightLimit {
			c.Weight = p.WeightLimit
		} else if c.Weight < -p.WeightLimit {
			c.Weight = -p.WeightLimit
		}
	}
}
