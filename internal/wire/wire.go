// Package wire implements the TCP request/response framing: one
// connection carries many requests, each request gets exactly one
// response, and one request's error never aborts the connection. Framing
// reuses the same self-delimited JSON streaming approach as the
// generation log (internal/record) — requests and responses are written
// back-to-back with no separators.
package wire

import (
	"bufio"
	"errors"
	"io"

	json "github.com/goccy/go-json"

	"github.com/jptalukdar/kvs/internal/kvserr"
)

// RequestKind distinguishes the three request variants.
type RequestKind uint8

const (
	RequestGet RequestKind = iota
	RequestSet
	RequestRemove
)

// Request is one client request.
type Request struct {
	Kind  RequestKind
	Key   string
	Value string // only meaningful for RequestSet
}

// GetRequest builds a Get request.
func GetRequest(key string) Request { return Request{Kind: RequestGet, Key: key} }

// SetRequest builds a Set request.
func SetRequest(key, value string) Request {
	return Request{Kind: RequestSet, Key: key, Value: value}
}

// RemoveRequest builds a Remove request.
func RemoveRequest(key string) Request { return Request{Kind: RequestRemove, Key: key} }

// Response carries a Get result or an error, never both. HasValue and
// HasErr both false means success with no value: a Set, a Remove, or a
// Get of a key that was not found.
type Response struct {
	Value    string
	HasValue bool
	ErrMsg   string
	HasErr   bool
}

// ValueResponse reports a found value.
func ValueResponse(value string) Response { return Response{Value: value, HasValue: true} }

// EmptyResponse reports success with nothing to return: a Set, a
// Remove, or a Get that found nothing.
func EmptyResponse() Response { return Response{} }

// ErrorResponse reports a request failure by its message.
func ErrorResponse(msg string) Response { return Response{ErrMsg: msg, HasErr: true} }

type wireRequest struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

const (
	opGet = "get"
	opSet = "set"
	opRm  = "rm"
)

type wireResponse struct {
	Value *string `json:"value"`
	Error *string `json:"error"`
}

// EncodeRequest serializes r as a single self-delimited JSON object.
func EncodeRequest(r Request) ([]byte, error) {
	w := wireRequest{Key: r.Key, Value: r.Value}
	switch r.Kind {
	case RequestGet:
		w.Op = opGet
	case RequestSet:
		w.Op = opSet
	case RequestRemove:
		w.Op = opRm
	default:
		return nil, kvserr.Codec("encode request", errors.New("unknown request kind"))
	}
	buf, err := json.Marshal(&w)
	if err != nil {
		return nil, kvserr.Codec("encode request", err)
	}
	return buf, nil
}

// EncodeResponse serializes r as a single self-delimited JSON object.
func EncodeResponse(r Response) ([]byte, error) {
	w := wireResponse{}
	if r.HasValue {
		w.Value = &r.Value
	}
	if r.HasErr {
		w.Error = &r.ErrMsg
	}
	buf, err := json.Marshal(&w)
	if err != nil {
		return nil, kvserr.Codec("encode response", err)
	}
	return buf, nil
}

// Decoder decodes a stream of back-to-back requests or responses.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps r for message-at-a-time decoding.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(bufio.NewReader(r))}
}

// DecodeRequest reads exactly one request. It returns io.EOF when the
// stream ends at a message boundary, which on a connection means the
// client hung up cleanly between requests.
func (d *Decoder) DecodeRequest() (Request, error) {
	var w wireRequest
	if err := d.dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return Request{}, io.EOF
		}
		return Request{}, kvserr.Codec("decode request", err)
	}
	switch w.Op {
	case opGet:
		return Request{Kind: RequestGet, Key: w.Key}, nil
	case opSet:
		return Request{Kind: RequestSet, Key: w.Key, Value: w.Value}, nil
	case opRm:
		return Request{Kind: RequestRemove, Key: w.Key}, nil
	default:
		return Request{}, kvserr.Codec("decode request", errors.New("unknown request op "+w.Op))
	}
}

// DecodeResponse reads exactly one response.
func (d *Decoder) DecodeResponse() (Response, error) {
	var w wireResponse
	if err := d.dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return Response{}, io.EOF
		}
		return Response{}, kvserr.Codec("decode response", err)
	}
	r := Response{}
	if w.Value != nil {
		r.Value = *w.Value
		r.HasValue = true
	}
	if w.Error != nil {
		r.ErrMsg = *w.Error
		r.HasErr = true
	}
	return r, nil
}
