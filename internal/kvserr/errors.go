// Package kvserr defines the error taxonomy shared by the storage engine,
// the wire protocol, and the server. Every error the engine returns can be
// classified into exactly one of the kinds below via errors.Is.
package kvserr

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the five error kinds the engine surfaces.
var (
	// ErrKeyNotFound is returned only by Remove on a key that is absent.
	ErrKeyNotFound = errors.New("key not found")

	// ErrIo wraps an underlying filesystem or network failure.
	ErrIo = errors.New("io error")

	// ErrCodec wraps a malformed record or wire message.
	ErrCodec = errors.New("codec error")

	// ErrEngineMismatch is returned when the persisted engine tag disagrees
	// with the requested engine.
	ErrEngineMismatch = errors.New("engine mismatch")

	// ErrClient marks a server-reported error surfaced to a client as a
	// distinct, non-zero exit path.
	ErrClient = errors.New("client error")
)

// Io wraps err as an I/O failure, preserving it for errors.Is/As.
func Io(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrIo, err)
}

// Codec wraps err as a codec failure.
func Codec(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrCodec, err)
}

// Client wraps a server-reported message as a client-surfaced error.
func Client(msg string) error {
	return fmt.Errorf("%w: %s", ErrClient, msg)
}

// EngineMismatch reports a disagreement between the persisted and requested
// engine names.
func EngineMismatch(persisted, requested string) error {
	return fmt.Errorf("%w: store was opened with %q, requested %q", ErrEngineMismatch, persisted, requested)
}
