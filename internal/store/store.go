// Package store persists the page-index cache and the recent stacks list
// in a BoltDB database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"fystack/internal/stack"

	bolt "go.etcd.io/bbolt"
)

const (
	dbFileName    = "fystack.db"
	appName       = "fystack"
	IndexBucket   = "StackIndex" // Absolute path to cached page table.
	RecentBucket  = "Recent"     // Single key holding the recent stacks list.
	recentListKey = "paths"

	// openTimeout bounds the wait for another process holding the file lock.
	openTimeout = 2 * time.Second
)

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// DB is the application database.
type DB struct {
	db     *bolt.DB
	path   string
	logger LoggerFunc
}

// indexRecord is the stored form of one cached page table.
type indexRecord struct {
	Size    int64        `json:"size"`
	ModTime int64        `json:"mod_time"`
	Pages   []stack.Page `json:"pages"`
}

var _ stack.IndexCache = (*DB)(nil)

// DefaultDir returns the per-user directory the database lives in,
// creating it if needed.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no user config directory: %w", err)
	}
	dir := filepath.Join(configDir, appName)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return dir, nil
}

// Open creates or opens the database. dbPath may name the file itself or
// a directory to put fystack.db in; empty means DefaultDir.
func Open(dbPath string, logger LoggerFunc) (*DB, error) {
	if dbPath == "" {
		dir, err := DefaultDir()
		if err != nil {
			log.Printf("Warning: %v. Using current dir.", err)
			dir = "."
		}
		dbPath = dir
	}
	if fi, err := os.Stat(dbPath); err == nil && fi.IsDir() {
		dbPath = filepath.Join(dbPath, dbFileName)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{IndexBucket, RecentBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &DB{db: db, path: dbPath, logger: logger}
	s.logMessage("Using database at: %s", dbPath)
	return s, nil
}

func (s *DB) logMessage(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger(fmt.Sprintf(format, args...))
	}
}

// Path returns the database file path.
func (s *DB) Path() string {
	return s.path
}

// Close closes the database.
func (s *DB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadIndex returns the cached page table for key. A record written for
// a different size or modification time is a miss.
func (s *DB) LoadIndex(key stack.IndexKey) ([]stack.Page, bool) {
	var rec indexRecord
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(IndexBucket)).Get([]byte(key.Path))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		found = rec.Size == key.Size && rec.ModTime == key.ModTime
		return nil
	})
	if err != nil {
		s.logMessage("Ignoring unreadable index for %s: %v", key.Path, err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return rec.Pages, true
}

// SaveIndex stores pages for key, replacing any older record for the path.
func (s *DB) SaveIndex(key stack.IndexKey, pages []stack.Page) error {
	data, err := json.Marshal(indexRecord{Size: key.Size, ModTime: key.ModTime, Pages: pages})
	if err != nil {
		return fmt.Errorf("failed to encode index for %s: %w", key.Path, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(IndexBucket)).Put([]byte(key.Path), data); err != nil {
			return fmt.Errorf("failed to save index for %s: %w", key.Path, err)
		}
		return nil
	})
}

// DeleteIndex removes the cached page table for path.
func (s *DB) DeleteIndex(path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(IndexBucket)).Delete([]byte(path))
	})
}

// IndexedPaths returns every path with a cached page table, sorted.
func (s *DB) IndexedPaths() ([]string, error) {
	var paths []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(IndexBucket)).ForEach(func(k, _ []byte) error {
			paths = append(paths, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed paths: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// CleanMissing drops cached page tables whose file no longer exists or
// has changed since it was indexed.
func (s *DB) CleanMissing() (int, error) {
	var stale [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(IndexBucket)).ForEach(func(k, v []byte) error {
			fi, err := os.Stat(string(k))
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					stale = append(stale, append([]byte(nil), k...))
				}
				return nil
			}
			var rec indexRecord
			if json.Unmarshal(v, &rec) != nil || rec.Size != fi.Size() || rec.ModTime != fi.ModTime().UnixNano() {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan index cache: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(IndexBucket))
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clean index cache: %w", err)
	}
	s.logMessage("Removed %d stale index entries", len(stale))
	return len(stale), nil
}

// LoadRecent returns the stored recent stacks list, newest first.
func (s *DB) LoadRecent() ([]string, error) {
	var paths []string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(RecentBucket)).Get([]byte(recentListKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &paths)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load recent stacks: %w", err)
	}
	return paths, nil
}

// SaveRecent replaces the stored recent stacks list.
func (s *DB) SaveRecent(paths []string) error {
	if paths == nil {
		paths = []string{}
	}
	data, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("failed to encode recent stacks: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(RecentBucket)).Put([]byte(recentListKey), data)
	})
}
