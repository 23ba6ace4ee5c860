// Package baseline persists per-region spectral baselines (NDVI, NDWI,
// SWIR) across runs of the feed generator. Detection thresholds are
// expressed as deltas from these baselines, so keeping them on disk makes
// event generation stable between restarts.
package baseline

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Baseline is the stored reference state for one region.
type Baseline struct {
	Region    string  `json:"region"`
	NDVI      float64 `json:"baseline_ndvi"`
	NDWI      float64 `json:"baseline_ndwi"`
	SWIR      float64 `json:"baseline_swir"`
	UpdatedAt int64   `json:"last_updated"` // epoch milliseconds
}

// Store is a badger-backed baseline map with a read-through cache.
// Writes are most-recent-wins per region.
type Store struct {
	db    *badger.DB
	cache sync.Map
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	// Decrease logging verbosity
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(region string) []byte {
	return []byte("baseline/" + region)
}

// Put stores b, replacing any previous baseline for the same region.
func (s *Store) Put(b Baseline) error {
	if b.Region == "" {
		return fmt.Errorf("baseline with empty region")
	}
	val, err := json.Marshal(b)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(b.Region), val)
	})
	if err != nil {
		return err
	}
	s.cache.Store(b.Region, b)
	return nil
}

// Get returns the baseline for region and whether one exists.
func (s *Store) Get(region string) (Baseline, bool, error) {
	if v, ok := s.cache.Load(region); ok {
		return v.(Baseline), true, nil
	}
	var b Baseline
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(region))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &b)
		})
	})
	if err == badger.ErrKeyNotFound {
		return Baseline{}, false, nil
	}
	if err != nil {
		return Baseline{}, false, err
	}
	s.cache.Store(region, b)
	return b, true, nil
}

// ForEach visits every stored baseline.
func (s *Store) ForEach(fn func(Baseline) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var b Baseline
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &b)
			})
			if err != nil {
				return err
			}
			if err := fn(b); err != nil {
				return err
			}
		}
		return nil
	})
}
