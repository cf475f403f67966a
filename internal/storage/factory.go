package storage

import "fmt"

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

func DefaultStoreKind() string {
	return KindMemory
}

// NewStore builds the journal backend for kind. memOpts apply to the memory
// backend only.
func NewStore(kind, sqlitePath string, memOpts ...MemoryOption) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(memOpts...), nil
	case KindSQLite:
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
