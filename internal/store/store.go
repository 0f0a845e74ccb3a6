package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketPrefs = []byte("prefs")
)

const (
	dbFile = "newsdash.db"

	keyLastCategory = "last_category"
)

// PrefsStore persists small user preferences in BoltDB.
type PrefsStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for reads (promoted on access)
	cache map[string][]byte
}

// Open opens the preference database under dir. An empty dir gives a
// memory-only store that forgets everything on Close.
func Open(dir string) (*PrefsStore, error) {
	if dir == "" {
		// Memory-only mode (no persistence)
		return &PrefsStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPrefs)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &PrefsStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *PrefsStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file, or "" in memory-only mode
func (s *PrefsStore) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

func (s *PrefsStore) get(key string, dest any) bool {
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPrefs)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *PrefsStore) set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrefs).Put([]byte(key), data)
	})
}

func (s *PrefsStore) delete(key string) error {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrefs).Delete([]byte(key))
	})
}

// LastCategory returns the category selected when the dashboard last closed
func (s *PrefsStore) LastCategory() (string, bool) {
	var category string
	ok := s.get(keyLastCategory, &category)
	return category, ok && category != ""
}

// SaveLastCategory remembers category for the next start. An empty
// category forgets it.
func (s *PrefsStore) SaveLastCategory(category string) error {
	if category == "" {
		return s.delete(keyLastCategory)
	}
	return s.set(keyLastCategory, category)
}
