package storage

import (
	"context"
	"errors"

	"flapneat/internal/ga"
	"flapneat/internal/logging"
)

// ErrNotInitialized is returned by stores used before Init
var ErrNotInitialized = errors.New("store is not initialized")

// Store archives training runs: one summary per logged generation and every
// saved champion.
type Store interface {
	Init(ctx context.Context) error
	SaveGeneration(ctx context.Context, summary logging.GenerationSummary) error
	Generations(ctx context.Context, runID string) ([]logging.GenerationSummary, bool, error)
	SaveChampion(ctx context.Context, champion ga.ChampionFile) error
	LatestChampion(ctx context.Context, runID string) (ga.ChampionFile, bool, error)
}
