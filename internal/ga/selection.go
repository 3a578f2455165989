package ga

import (
	"math"
	"math/rand"
)

// SurvivalPool returns the top fraction of members eligible as parents.
// Members must already be sorted by fitness descending; at least one
// member survives.
func SurvivalPool(members []Agent, fraction float64) []Agent {
	if len(members) == 0 {
		return nil
	}
	n := int(math.Ceil(float64(len(members)) * fraction))
	if n < 1 {
		n = 1
	}
	if n > len(members) {
		n = len(members)
	}
	return members[:n]
}

// RouletteSelect draws one agent with probability proportional to its
// fitness, shifted so the weakest candidate weighs 1
func RouletteSelect(pool []Agent, rng *rand.Rand) Agent {
	if len(pool) == 0 {
		return nil
	}

	minFit := math.Inf(1)
	for _, a := range pool {
		minFit = math.Min(minFit, a.Fitness())
	}

	total := 0.0
	weights := make([]float64, len(pool))
	for i, a := range pool {
		weights[i] = a.Fitness() - minFit + 1
		total += weights[i]
	}

	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return pool[i]
		}
	}
	return pool[len(pool)-1]
}
