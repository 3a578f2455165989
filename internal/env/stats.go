package env

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// DeathReason indicates how the bird died
type DeathReason int

const (
	DeathNone    DeathReason = iota
	DeathGround              // hit the ground
	DeathPipe                // hit a pipe
	DeathTimeout             // tick cap reached
)

func (d DeathReason) String() string {
	switch d {
	case DeathNone:
		return "none"
	case DeathGround:
		return "ground"
	case DeathPipe:
		return "pipe"
	case DeathTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// MarshalText encodes the reason by name
func (d DeathReason) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a reason name
func (d *DeathReason) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*d = DeathNone
	case "ground":
		*d = DeathGround
	case "pipe":
		*d = DeathPipe
	case "timeout":
		*d = DeathTimeout
	default:
		return fmt.Errorf("unknown death reason %q", text)
	}
	return nil
}

// EpisodeStats captures all metrics from a single bird's flight
type EpisodeStats struct {
	Ticks int         `json:"ticks"`
	Pipes int         `json:"pipes"`
	Flaps int         `json:"flaps"`
	Death DeathReason `json:"death"`
	Seed  int64       `json:"seed"`
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	TicksMean   float64
	TicksStd    float64
	PipesMean   float64
	BestPipes   int
	DeathCounts map[DeathReason]int
	NumEpisodes int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	agg := AggregatedStats{
		DeathCounts: make(map[DeathReason]int),
		NumEpisodes: len(episodes),
	}
	if len(episodes) == 0 {
		return agg
	}

	ticks := make([]float64, len(episodes))
	pipes := make([]float64, len(episodes))
	for i, ep := range episodes {
		ticks[i] = float64(ep.Ticks)
		pipes[i] = float64(ep.Pipes)
		if ep.Pipes > agg.BestPipes {
			agg.BestPipes = ep.Pipes
		}
		agg.DeathCounts[ep.Death]++
	}

	agg.TicksMean, agg.TicksStd = stat.PopMeanStdDev(ticks, nil)
	agg.PipesMean = stat.Mean(pipes, nil)
	return agg
}

// RobustnessScore ranks a benchmark: mean ticks minus lambda standard deviations
func (a AggregatedStats) RobustnessScore(lambda float64) float64 {
	return a.TicksMean - lambda*a.TicksStd
}
