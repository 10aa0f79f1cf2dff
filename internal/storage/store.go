package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var seedsBucket = []byte("seeds")

// ErrSnapshotNotFound is returned when no snapshot exists for a ref.
var ErrSnapshotNotFound = errors.New("snapshot not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 1 * time.Second
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(seedsBucket)
		return createErr
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveSnapshot(snap *Snapshot) error {
	if snap.Ref == "" {
		return fmt.Errorf("snapshot has no ref")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(seedsBucket)
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		return b.Put([]byte(snap.Ref), data)
	})
}

func (s *Store) GetSnapshot(ref string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(seedsBucket)
		data := b.Get([]byte(ref))
		if data == nil {
			return ErrSnapshotNotFound
		}
		return json.Unmarshal(data, &snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshots returns every stored snapshot, newest first.
func (s *Store) ListSnapshots() ([]*Snapshot, error) {
	var snaps []*Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(seedsBucket)
		return b.ForEach(func(_ []byte, v []byte) error {
			var snap Snapshot
			if err := json.Unmarshal(v, &snap); err != nil {
				return nil
			}
			snaps = append(snaps, &snap)
			return nil
		})
	})
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].FetchedAt.After(snaps[j].FetchedAt)
	})
	return snaps, err
}

func (s *Store) DeleteSnapshot(ref string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(seedsBucket).Delete([]byte(ref))
	})
}
