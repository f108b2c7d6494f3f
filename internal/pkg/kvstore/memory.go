package kvstore

import (
	"sync"

	"github.com/sqltutor/sqltutor-be/internal/pkg/apperrors"
)

// Memory is an in-memory Store. It backs tests and the degraded mode the
// engine falls into when the persistent store reports quota exhaustion.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte

	// MaxBytes caps the total stored payload size; 0 means unlimited.
	// Writes past the cap report QuotaExceeded, matching the behavior of
	// quota-limited persistent stores.
	MaxBytes int

	used int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (s *Memory) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (s *Memory) Set(key string, value []byte) (SetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(key, value)
}

func (s *Memory) setLocked(key string, value []byte) (SetResult, error) {
	next := s.used - len(s.m[key]) + len(value)
	if s.MaxBytes > 0 && next > s.MaxBytes {
		return SetResult{Success: false, QuotaExceeded: true}, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.m[key] = cp
	s.used = next
	return SetResult{Success: true}, nil
}

func (s *Memory) Merge(key string, fn Mutator) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.m[key])
	if err != nil {
		return nil, err
	}
	res, err := s.setLocked(key, next)
	if err != nil {
		return nil, err
	}
	if res.QuotaExceeded {
		return nil, &apperrors.QuotaExceededError{Key: key}
	}
	cp := make([]byte, len(next))
	copy(cp, next)
	return cp, nil
}

func (s *Memory) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used -= len(s.m[key])
	delete(s.m, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
