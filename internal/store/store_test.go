package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jptalukdar/kvs/internal/kvserr"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("a", "1"))
	v, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)
}

func TestGetMissingKey(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOverwriteReturnsLatestValue(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("a", "2"))

	v, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", v)
}

func TestRemoveThenGetIsMiss(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Remove("a"))

	_, ok, err := s.Get("a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDoubleRemoveIsKeyNotFound(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Remove("a"))

	err = s.Remove("a")
	require.Error(t, err)
	require.ErrorIs(t, err, kvserr.ErrKeyNotFound)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Set("a", "1"))
	require.NoError(t, s1.Set("b", "2"))
	require.NoError(t, s1.Remove("a"))
	require.NoError(t, s1.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	_, ok, err := s2.Get("a")
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := s2.Get("b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", v)
}

func TestCompactionBoundsGenerationCount(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	value := make([]byte, 1024)
	for i := range value {
		value[i] = 'x'
	}

	for i := 0; i < 10000; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("key-%d", i%50), string(value)))
	}

	gens, err := listGenerations(dir)
	require.NoError(t, err)
	require.Lessf(t, len(gens), 10, "expected compaction to keep generation count low, got %d", len(gens))

	for i := 0; i < 50; i++ {
		v, ok, err := s.Get(fmt.Sprintf("key-%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, string(value), v)
	}
}

func TestConcurrentDisjointKeyReadersAndWriter(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	const keys = 64
	for i := 0; i < keys; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)))
	}

	var wg sync.WaitGroup
	errs := make(chan error, keys*4)

	for i := 0; i < keys; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				v, ok, err := s.Get(fmt.Sprintf("k%d", i))
				if err != nil {
					errs <- err
					return
				}
				if !ok || v != fmt.Sprintf("v%d", i) {
					errs <- errors.New("unexpected read")
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := keys; i < keys+200; i++ {
			if err := s.Set(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)); err != nil {
				errs <- err
				return
			}
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestNameIsKvs(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, "kvs", s.Name())
}
