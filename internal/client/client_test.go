package client

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jptalukdar/kvs/internal/kvserr"
	"github.com/jptalukdar/kvs/internal/pool"
	"github.com/jptalukdar/kvs/internal/server"
	"github.com/jptalukdar/kvs/internal/store"
)

func startServer(t *testing.T) string {
	t.Helper()

	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p, err := pool.NewSharedQueue(4)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.New(listener.Addr().String(), s, p)
	go srv.ServeListener(listener)
	t.Cleanup(func() { listener.Close() })

	return listener.Addr().String()
}

func TestClientSetGetRemove(t *testing.T) {
	addr := startServer(t)

	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set("a", "1"))

	v, ok, err := c.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)

	require.NoError(t, c.Remove("a"))

	_, ok, err = c.Get("a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClientRemoveMissingKeyIsClientError(t *testing.T) {
	addr := startServer(t)

	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	err = c.Remove("missing")
	require.Error(t, err)
	require.ErrorIs(t, err, kvserr.ErrClient)
}
