package storage

import (
	"encoding/json"
	"fmt"

	"flapneat/internal/ga"
	"flapneat/internal/logging"
	"flapneat/internal/nn"
)

func EncodeGeneration(s logging.GenerationSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeGeneration(data []byte) (logging.GenerationSummary, error) {
	var s logging.GenerationSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return logging.GenerationSummary{}, err
	}
	return s, nil
}

func EncodeChampion(c ga.ChampionFile) ([]byte, error) {
	return json.Marshal(c)
}

// DecodeChampion also checks that the stored brain still rebuilds
func DecodeChampion(data []byte) (ga.ChampionFile, error) {
	c, _, err := ga.DecodeChampion(data)
	if err != nil {
		return ga.ChampionFile{}, fmt.Errorf("decode champion: %w", err)
	}
	return c, nil
}

// validChampion rejects records whose brain cannot be rebuilt
func validChampion(c ga.ChampionFile) error {
	if _, err := nn.FromRecord(c.Brain); err != nil {
		return fmt.Errorf("champion of run %q: %w", c.RunID, err)
	}
	return nil
}
