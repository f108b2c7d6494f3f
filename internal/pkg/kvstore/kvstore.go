// Package kvstore defines the storage collaborator interface the tutoring
// core persists through, plus badger-backed and in-memory implementations.
package kvstore

// SetResult reports the outcome of a Set.
type SetResult struct {
	Success       bool
	QuotaExceeded bool
}

// Mutator transforms the current value of a key into its next value.
// A nil current slice means the key is absent (or its value was unreadable).
type Mutator func(current []byte) ([]byte, error)

// Store is the minimal key-value surface the engine requires.
//
// Get returns (nil, false, nil) for absent keys. Implementations must treat
// values they cannot read as absent rather than failing. Merge applies the
// mutator atomically with optimistic retry on concurrent writers.
type Store interface {
	Get(key string) (value []byte, found bool, err error)
	Set(key string, value []byte) (SetResult, error)
	Merge(key string, fn Mutator) ([]byte, error)
	Delete(key string) error
}
