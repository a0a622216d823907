// Package config manages the small amount of persistent configuration a
// store directory carries between runs: which engine it was opened with.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/jptalukdar/kvs/internal/kvserr"
)

const engineFileName = "engine"

// PersistedEngine reads the engine tag recorded in dir, if any.
func PersistedEngine(dir string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, engineFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, kvserr.Io("read engine tag", err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

// EnsureEngine checks the engine tag persisted in dir against requested.
// A directory with no tag yet adopts requested, written atomically. A
// directory whose tag disagrees with requested fails with
// kvserr.ErrEngineMismatch rather than silently opening it.
func EnsureEngine(dir, requested string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return kvserr.Io("create store directory", err)
	}

	persisted, ok, err := PersistedEngine(dir)
	if err != nil {
		return err
	}
	if !ok {
		return writeEngine(dir, requested)
	}
	if persisted != requested {
		return kvserr.EngineMismatch(persisted, requested)
	}
	return nil
}

func writeEngine(dir, name string) error {
	path := filepath.Join(dir, engineFileName)
	if err := atomic.WriteFile(path, bytes.NewReader([]byte(name))); err != nil {
		return kvserr.Io("write engine tag", err)
	}
	return nil
}
