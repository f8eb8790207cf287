// Package flatstore is the secondary, low-capacity config tier: a single
// TOML file of string values, guarded by an advisory file lock so that
// concurrent processes on the same data directory do not interleave writes.
//
// It has no transactions and no schema; it exists so that small critical
// entries survive when the SQLite store cannot be opened.
package flatstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
)

const lockRetryDelay = 20 * time.Millisecond

type document struct {
	Entries map[string]string `toml:"entries"`
}

// FileStore implements a byte-valued key/value store on one TOML file.
type FileStore struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

func New(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rlock(ctx); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	v, ok := doc.Entries[key]
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	return s.update(ctx, func(entries map[string]string) {
		entries[key] = string(value)
	})
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	return s.update(ctx, func(entries map[string]string) {
		delete(entries, key)
	})
}

// Keys returns the stored keys in ascending order.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rlock(ctx); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc.Entries))
	for k := range doc.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) update(ctx context.Context, fn func(map[string]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("flatstore mkdir: %w", err)
	}
	if _, err := s.lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("flatstore lock: %w", err)
	}
	defer s.lock.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	fn(doc.Entries)
	return s.write(doc)
}

func (s *FileStore) rlock(ctx context.Context) error {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
			return fmt.Errorf("flatstore mkdir: %w", err)
		}
	}
	if _, err := s.lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("flatstore lock: %w", err)
	}
	return nil
}

func (s *FileStore) read() (*document, error) {
	doc := &document{Entries: map[string]string{}}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("flatstore read: %w", err)
	}
	if err := toml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("flatstore decode %s: %w", s.path, err)
	}
	if doc.Entries == nil {
		doc.Entries = map[string]string{}
	}
	return doc, nil
}

// write replaces the file atomically via a temp file and rename.
func (s *FileStore) write(doc *document) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("flatstore encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("flatstore temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flatstore write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flatstore sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flatstore close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("flatstore rename: %w", err)
	}
	return nil
}
