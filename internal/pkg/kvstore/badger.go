package kvstore

import (
	"errors"
	"fmt"
	"os"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sqltutor/sqltutor-be/internal/pkg/apperrors"
)

// BadgerConfig holds configuration for the badger-backed store.
type BadgerConfig struct {
	// Path is the directory for database files. Ignored when InMemory is set.
	Path string
	// InMemory disables disk persistence. Useful for tests.
	InMemory bool
	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool
	// MergeMaxRetries bounds optimistic retries in Merge before giving up.
	// Zero means the default of 5.
	MergeMaxRetries int
}

// Badger is a Store backed by an embedded BadgerDB instance.
type Badger struct {
	db         *badger.DB
	maxRetries int
}

// OpenBadger opens (creating if needed) a badger database per cfg.
// The caller must Close it when done.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	retries := cfg.MergeMaxRetries
	if retries <= 0 {
		retries = 5
	}
	return &Badger{db: db, maxRetries: retries}, nil
}

// Close closes the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}

func (b *Badger) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %q: %w", key, err)
	}
	return out, true, nil
}

func (b *Badger) Set(key string, value []byte) (SetResult, error) {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return SetResult{Success: false, QuotaExceeded: true}, nil
	}
	if err != nil {
		return SetResult{}, fmt.Errorf("kv set %q: %w", key, err)
	}
	return SetResult{Success: true}, nil
}

// Merge applies fn inside a read-write transaction, retrying on badger's
// optimistic-concurrency conflicts up to the configured bound.
func (b *Badger) Merge(key string, fn Mutator) ([]byte, error) {
	var result []byte
	for attempt := 0; attempt < b.maxRetries; attempt++ {
		err := b.db.Update(func(txn *badger.Txn) error {
			var current []byte
			item, err := txn.Get([]byte(key))
			if err == nil {
				current, err = item.ValueCopy(nil)
				if err != nil {
					return err
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			next, err := fn(current)
			if err != nil {
				return err
			}
			result = next
			return txn.Set([]byte(key), next)
		})
		if err == nil {
			return result, nil
		}
		if errors.Is(err, badger.ErrTxnTooBig) {
			return nil, &apperrors.QuotaExceededError{Key: key}
		}
		if !errors.Is(err, badger.ErrConflict) {
			return nil, fmt.Errorf("kv merge %q: %w", key, err)
		}
	}
	return nil, &apperrors.ConflictError{Key: key, Attempts: b.maxRetries}
}

func (b *Badger) Delete(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}
