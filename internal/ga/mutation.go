package ga

import (
	"flapneat/internal/config"
	"flapneat/internal/nn"
)

// MutationPolicy converts the configured mutation section into the policy
// applied by nn.Brain.Mutate
func MutationPolicy(c config.MutationConfig) nn.MutationPolicy {
	return nn.MutationPolicy{
		Probability:  c.Probability,
		ReplaceRate:  c.ReplaceRate,
		PerturbScale: c.PerturbScale,
		WeightLimit:  c.WeightLimit,
	}
}
