package btreeengine

import (
	"testing"

	"github.com/jptalukdar/kvs/internal/kvserr"
	"github.com/stretchr/testify/require"
)

func TestSetGetRemove(t *testing.T) {
	e, err := Open(t.TempDir())
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Set("a", "1"))
	v, ok, err := e.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)

	require.NoError(t, e.Remove("a"))
	_, ok, err = e.Get("a")
	require.NoError(t, err)
	require.False(t, ok)

	err = e.Remove("a")
	require.ErrorIs(t, err, kvserr.ErrKeyNotFound)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	e1, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, e1.Set("a", "1"))
	require.NoError(t, e1.Set("b", "2"))
	require.NoError(t, e1.Remove("a"))
	require.NoError(t, e1.Close())

	e2, err := Open(dir)
	require.NoError(t, err)
	defer e2.Close()

	_, ok, err := e2.Get("a")
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := e2.Get("b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", v)
}

func TestName(t *testing.T) {
	e, err := Open(t.TempDir())
	require.NoError(t, err)
	defer e.Close()
	require.Equal(t, "btree", e.Name())
}
