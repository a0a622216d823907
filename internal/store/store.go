// Package store implements the log-structured, generational key-value
// engine: an append-only sequence of per-generation JSON record files, an
// in-memory ordered index of each live key's location, and synchronous
// compaction that runs inside the writer's single critical section.
//
// Many readers may call Get concurrently with the one writer mutating the
// store; readers never take the writer's lock and open a fresh file
// handle on every call, so they are never blocked by, and never hold open
// a handle across, a compaction.
package store

import (
	"errors"
	"os"

	"github.com/jptalukdar/kvs/internal/engine"
	"github.com/jptalukdar/kvs/internal/index"
)

var _ engine.Engine = (*Store)(nil)

// Store is a handle onto a log-structured store rooted at a directory.
// It is cheap to copy: Clone shares the index, reader, and writer with
// the original, so handing each connection its own Store costs nothing
// beyond the struct itself.
type Store struct {
	dir    string
	idx    *index.Index
	reader *Reader
	w      *writerState
}

// Open opens (or initializes) a log-structured store at dir, replaying
// any existing generation files to rebuild the index before accepting
// writes.
func Open(dir string) (*Store, error) {
	gens, err := listGenerations(dir)
	if err != nil {
		return nil, err
	}

	idx := index.New()
	var uncompacted uint64
	if len(gens) > 0 {
		uncompacted, err = recover(dir, idx, gens)
		if err != nil {
			return nil, err
		}
	}

	reader := NewReader(dir)
	w, err := openWriter(dir, idx, reader, nextGeneration(gens), 0, uncompacted)
	if err != nil {
		return nil, err
	}

	return &Store{dir: dir, idx: idx, reader: reader, w: w}, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	return s.w.set(key, value)
}

// Get returns key's current value. The ok result is false if key is
// absent.
//
// A lookup races compaction only in the window between reading the
// index and opening the generation file it named; if compaction deletes
// that exact generation in between, the open fails with "not exist" and
// the index — which compaction always repoints before it deletes
// anything — now holds the key's new location. One retry resolves it.
func (s *Store) Get(key string) (string, bool, error) {
	loc, ok := s.idx.Get(key)
	if !ok {
		return "", false, nil
	}

	value, err := s.reader.Get(loc)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		loc, ok = s.idx.Get(key)
		if !ok {
			return "", false, nil
		}
		value, err = s.reader.Get(loc)
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Remove deletes key. It returns kvserr.ErrKeyNotFound if key is already
// absent.
func (s *Store) Remove(key string) error {
	return s.w.remove(key)
}

// Close releases the writer's open file handle. Every clone shares that
// writer, so after Close no clone can Set or Remove.
func (s *Store) Close() error {
	return s.w.close()
}

// Name identifies this engine as persisted alongside the data directory.
func (s *Store) Name() string { return "kvs" }

// Clone returns a handle sharing this store's index, reader, and writer.
func (s *Store) Clone() *Store {
	return &Store{dir: s.dir, idx: s.idx, reader: s.reader, w: s.w}
}
