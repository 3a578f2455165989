package storage

import (
	"fmt"
	"sort"

	"flapneat/internal/logging"
)

func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

func sortGenerations(list []logging.GenerationSummary) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Generation < list[j].Generation
	})
}
