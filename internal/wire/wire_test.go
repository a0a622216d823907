package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	for _, r := range []Request{
		GetRequest("a"),
		SetRequest("a", "1"),
		RemoveRequest("a"),
	} {
		enc, err := EncodeRequest(r)
		require.NoError(t, err)
		buf.Write(enc)
	}

	dec := NewDecoder(&buf)

	r1, err := dec.DecodeRequest()
	require.NoError(t, err)
	require.Equal(t, RequestGet, r1.Kind)
	require.Equal(t, "a", r1.Key)

	r2, err := dec.DecodeRequest()
	require.NoError(t, err)
	require.Equal(t, RequestSet, r2.Kind)
	require.Equal(t, "1", r2.Value)

	r3, err := dec.DecodeRequest()
	require.NoError(t, err)
	require.Equal(t, RequestRemove, r3.Kind)

	_, err = dec.DecodeRequest()
	require.ErrorIs(t, err, io.EOF)
}

func TestResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	for _, r := range []Response{
		ValueResponse("v"),
		EmptyResponse(),
		ErrorResponse("key not found"),
	} {
		enc, err := EncodeResponse(r)
		require.NoError(t, err)
		buf.Write(enc)
	}

	dec := NewDecoder(&buf)

	r1, err := dec.DecodeResponse()
	require.NoError(t, err)
	require.True(t, r1.HasValue)
	require.Equal(t, "v", r1.Value)
	require.False(t, r1.HasErr)

	r2, err := dec.DecodeResponse()
	require.NoError(t, err)
	require.False(t, r2.HasValue)
	require.False(t, r2.HasErr)

	r3, err := dec.DecodeResponse()
	require.NoError(t, err)
	require.True(t, r3.HasErr)
	require.Equal(t, "key not found", r3.ErrMsg)
}

func TestMultipleRequestsShareOneConnectionStream(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 100; i++ {
		enc, err := EncodeRequest(SetRequest("k", "v"))
		require.NoError(t, err)
		buf.Write(enc)
	}

	dec := NewDecoder(&buf)
	for i := 0; i < 100; i++ {
		r, err := dec.DecodeRequest()
		require.NoError(t, err)
		require.Equal(t, RequestSet, r.Kind)
	}
	_, err := dec.DecodeRequest()
	require.ErrorIs(t, err, io.EOF)
}
