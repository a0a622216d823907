// Package index implements the in-memory index: a concurrent ordered map
// from key to the {generation, offset} location of that key's most recent
// Set record.
//
// The backing structure is a google/btree generic B-tree guarded by an
// RWMutex. Ordering is not exposed as a range-scan API — Snapshot gives
// the compactor a stable, deterministic iteration order, which also
// happens to make repeated compactions byte-for-byte reproducible given
// the same input, and Keys lists the live keys in that same order.
package index

import (
	"sync"

	"github.com/google/btree"
)

// Location is the on-disk position of a key's live Set record.
type Location struct {
	Generation uint64
	Offset     int64
}

type entry struct {
	key string
	loc Location
}

func less(a, b entry) bool { return a.key < b.key }

// Index is the shared, concurrently readable key location map. A single
// Index is shared by every clone of an engine handle.
type Index struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[entry]
}

// degree controls the B-tree node fanout; 32 keeps tree height low for
// the key counts this store targets (tens of thousands to low millions).
const degree = 32

// New returns an empty index.
func New() *Index {
	return &Index{tree: btree.NewG[entry](degree, less)}
}

// Get returns the location of key, if it is live.
func (ix *Index) Get(key string) (Location, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.tree.Get(entry{key: key})
	return e.loc, ok
}

// Set inserts or overwrites key's location. Only the writer calls this.
func (ix *Index) Set(key string, loc Location) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.ReplaceOrInsert(entry{key: key, loc: loc})
}

// Delete removes key from the index. Only the writer calls this.
func (ix *Index) Delete(key string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.tree.Delete(entry{key: key})
}

// Has reports whether key is currently live, without the locking path
// allocating a Location copy the caller doesn't need.
func (ix *Index) Has(key string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Has(entry{key: key})
}

// Len returns the number of live keys.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Len()
}

// Snapshot returns a point-in-time copy of every live key's location, in
// ascending key order. The compactor iterates this snapshot; because
// compaction only ever runs inside the writer's exclusive critical
// section, no concurrent Set/Delete can race the snapshot.
func (ix *Index) Snapshot() []struct {
	Key string
	Loc Location
} {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]struct {
		Key string
		Loc Location
	}, 0, ix.tree.Len())
	ix.tree.Ascend(func(e entry) bool {
		out = append(out, struct {
			Key string
			Loc Location
		}{Key: e.key, Loc: e.loc})
		return true
	})
	return out
}

// Keys returns every live key in ascending order.
func (ix *Index) Keys() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]string, 0, ix.tree.Len())
	ix.tree.Ascend(func(e entry) bool {
		out = append(out, e.key)
		return true
	})
	return out
}
