package config

import (
	"path/filepath"
	"testing"

	"github.com/jptalukdar/kvs/internal/kvserr"
	"github.com/stretchr/testify/require"
)

func TestEnsureEngineAdoptsOnFirstOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	require.NoError(t, EnsureEngine(dir, "kvs"))

	persisted, ok, err := PersistedEngine(dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "kvs", persisted)
}

func TestEnsureEngineAgreesOnReopen(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnsureEngine(dir, "btree"))
	require.NoError(t, EnsureEngine(dir, "btree"))
}

func TestEnsureEngineMismatchFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnsureEngine(dir, "kvs"))

	err := EnsureEngine(dir, "btree")
	require.Error(t, err)
	require.ErrorIs(t, err, kvserr.ErrEngineMismatch)
}

func TestPersistedEngineMissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := PersistedEngine(dir)
	require.NoError(t, err)
	require.False(t, ok)
}
