// Package history journals completed batches in a badger database.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/RogueTeam/volley/transfers"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var (
	ErrBatchNotFound = errors.New("batch not found")
)

var batchesPrefix = []byte("/batches/")

func BatchKey(id uuid.UUID) (key []byte) {
	return []byte(fmt.Sprintf("/batches/%s", id))
}

type Config struct {
	// Badger database to use
	DB *badger.DB
}

type Store struct {
	db *badger.DB
}

func New(config Config) (s Store) {
	s.db = config.DB
	return s
}

// Open opens the database at path. An empty path opens an in-memory database
func Open(path string) (db *badger.DB, err error) {
	options := badger.
		DefaultOptions(path).
		WithLoggingLevel(badger.WARNING)
	if path == "" {
		options = options.WithInMemory(true)
	}

	db, err = badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func (s *Store) Save(batch transfers.Batch) (err error) {
	contents, err := json.Marshal(&batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) (err error) {
		err = txn.Set(BatchKey(batch.Id), contents)
		if err != nil {
			return fmt.Errorf("failed to set batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return nil
}

func (s *Store) Get(id uuid.UUID) (batch transfers.Batch, err error) {
	err = s.db.View(func(txn *badger.Txn) (err error) {
		entry, err := txn.Get(BatchKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrBatchNotFound
			}
			return fmt.Errorf("failed to query batch: %w", err)
		}

		err = entry.Value(func(val []byte) (err error) {
			return json.Unmarshal(val, &batch)
		})
		if err != nil {
			return fmt.Errorf("failed to unmarshal batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return batch, fmt.Errorf("failed to query entry from the database: %w", err)
	}
	return batch, nil
}

// List returns every stored batch, oldest first
func (s *Store) List() (batches []transfers.Batch, err error) {
	err = s.db.View(func(txn *badger.Txn) (err error) {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:         batchesPrefix,
			PrefetchSize:   100,
			PrefetchValues: true,
		})
		defer it.Close()

		for it.Seek(batchesPrefix); it.ValidForPrefix(batchesPrefix); it.Next() {
			var batch transfers.Batch
			err = it.Item().Value(func(val []byte) (err error) {
				return json.Unmarshal(val, &batch)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal batch %s: %w", it.Item().Key(), err)
			}
			batches = append(batches, batch)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	slices.SortStableFunc(batches, func(a, b transfers.Batch) int {
		return a.Started.Compare(b.Started)
	})
	return batches, nil
}
