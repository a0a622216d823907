// Package engine defines the pluggable storage contract both concrete
// backends (the log-structured store and the btree-backed alternative)
// satisfy.
package engine

// Engine is the storage contract the server and the CLI binaries program
// against. An Engine handle is cheap to copy: every concrete
// implementation shares its index and writer state across clones, so
// handing each connection its own handle needs no extra synchronization
// beyond what the engine already provides.
type Engine interface {
	// Set stores value under key, creating or overwriting it.
	Set(key, value string) error

	// Get returns the current value of key, and false if key is absent.
	Get(key string) (string, bool, error)

	// Remove deletes key. It returns kvserr.ErrKeyNotFound if key is
	// already absent.
	Remove(key string) error

	// Close releases the engine's open files. Handles that share state are
	// not reference-counted: closing any one of them closes the shared
	// files for all of them.
	Close() error

	// Name identifies the engine, matching the tag persisted alongside
	// the data directory.
	Name() string
}
