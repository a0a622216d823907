package record

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	set, err := Encode(Set("a", "1"))
	require.NoError(t, err)
	buf.Write(set)

	rm, err := Encode(Remove("b"))
	require.NoError(t, err)
	buf.Write(rm)

	dec := NewDecoder(&buf)

	r1, err := dec.Decode()
	require.NoError(t, err)
	require.Equal(t, KindSet, r1.Kind)
	require.Equal(t, "a", r1.Key)
	require.Equal(t, "1", r1.Value)
	off1 := dec.Offset()
	require.Equal(t, int64(len(set)), off1)

	r2, err := dec.Decode()
	require.NoError(t, err)
	require.Equal(t, KindRemove, r2.Kind)
	require.Equal(t, "b", r2.Key)
	require.Equal(t, int64(len(set)+len(rm)), dec.Offset())

	_, err = dec.Decode()
	require.ErrorIs(t, err, io.EOF)
}

func TestDecodeMidRecordEOFIsCorruption(t *testing.T) {
	full, err := Encode(Set("key", "value"))
	require.NoError(t, err)

	truncated := full[:len(full)-3]
	dec := NewDecoder(bytes.NewReader(truncated))
	_, err = dec.Decode()
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestEncodeEmptyStringsAllowed(t *testing.T) {
	buf, err := Encode(Set("", ""))
	require.NoError(t, err)

	dec := NewDecoder(bytes.NewReader(buf))
	r, err := dec.Decode()
	require.NoError(t, err)
	require.Equal(t, "", r.Key)
	require.Equal(t, "", r.Value)
}

func TestDecodeSetAtRejectsRemove(t *testing.T) {
	buf, err := Encode(Remove("k"))
	require.NoError(t, err)

	_, err = DecodeSetAt(bytes.NewReader(buf))
	require.Error(t, err)
}

func TestDecodeSetAtReadsValue(t *testing.T) {
	buf, err := Encode(Set("k", "v"))
	require.NoError(t, err)

	v, err := DecodeSetAt(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, "v", v)
}
