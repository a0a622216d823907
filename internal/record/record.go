// Package record implements the self-delimited log-record codec: the
// on-disk encoding for Set/Remove commands, reused by the wire protocol
// for request/response framing.
//
// Records are written back-to-back with no separators. Decoding relies on
// a streaming JSON decoder that consumes exactly one JSON value per call
// and exposes the cumulative byte offset afterward — the offset the index
// (internal/index) stores as a record's starting position for the next
// write. This mirrors the original project's use of
// serde_json::Deserializer::from_reader().into_iter(), byte_offset().
package record

import (
	"bufio"
	"errors"
	"io"

	json "github.com/goccy/go-json"

	"github.com/jptalukdar/kvs/internal/kvserr"
)

// Kind distinguishes the two record variants.
type Kind uint8

const (
	// KindSet asserts key ↦ value.
	KindSet Kind = iota
	// KindRemove asserts key is deleted.
	KindRemove
)

// Record is one decoded or pending log/wire entry.
type Record struct {
	Kind  Kind
	Key   string
	Value string // unset for KindRemove
}

// Set builds a Set{key, value} record.
func Set(key, value string) Record { return Record{Kind: KindSet, Key: key, Value: value} }

// Remove builds a Remove{key} record.
func Remove(key string) Record { return Record{Kind: KindRemove, Key: key} }

// wireRecord is the on-the-wire JSON shape. op distinguishes the variant;
// value is omitted for Remove so a log reader can tell the two apart
// without guessing from field presence alone.
type wireRecord struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

const (
	opSet    = "set"
	opRemove = "rm"
)

// Encode serializes r as a single JSON object with no trailing separator
// and returns the exact bytes a caller should append to the log or wire
// stream. The returned length is what the writer advances its cursor by.
func Encode(r Record) ([]byte, error) {
	w := wireRecord{Key: r.Key, Value: r.Value}
	switch r.Kind {
	case KindSet:
		w.Op = opSet
	case KindRemove:
		w.Op = opRemove
	default:
		return nil, kvserr.Codec("encode record", errors.New("unknown record kind"))
	}
	buf, err := json.Marshal(&w)
	if err != nil {
		return nil, kvserr.Codec("encode record", err)
	}
	return buf, nil
}

// Decoder decodes a stream of back-to-back records and exposes the byte
// offset in the underlying stream immediately after the most recently
// decoded record.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps r for record-at-a-time decoding.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(bufio.NewReader(r))}
}

// Decode reads exactly one record. It returns io.EOF when the stream ends
// exactly at a record boundary (clean termination); any other decode
// failure — including a truncated trailing record — is a codec error.
func (d *Decoder) Decode() (Record, error) {
	var w wireRecord
	if err := d.dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, kvserr.Codec("decode record", err)
	}
	switch w.Op {
	case opSet:
		return Record{Kind: KindSet, Key: w.Key, Value: w.Value}, nil
	case opRemove:
		return Record{Kind: KindRemove, Key: w.Key}, nil
	default:
		return Record{}, kvserr.Codec("decode record", errors.New("unknown record op "+w.Op))
	}
}

// Offset returns the number of bytes consumed from the underlying reader
// up to and including the most recently decoded record.
func (d *Decoder) Offset() int64 {
	return d.dec.InputOffset()
}

// DecodeSetAt decodes exactly one record from r and requires it to be a
// Set; used by the reader and compactor, which only ever dereference
// index entries, and an index entry only ever points at a Set.
func DecodeSetAt(r io.Reader) (string, error) {
	dec := NewDecoder(r)
	rec, err := dec.Decode()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", kvserr.Codec("decode set", errors.New("unexpected end of stream"))
		}
		return "", err
	}
	if rec.Kind != KindSet {
		return "", kvserr.Codec("decode set", errors.New("expected Set record"))
	}
	return rec.Value, nil
}
