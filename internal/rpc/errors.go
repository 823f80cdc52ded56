package rpc

import (
	"errors"
	"fmt"
)

// Standard errors returned by the codec.
var (
	// ErrMalformedPayload indicates an inbound line that is not valid JSON or
	// lacks a field its message kind requires.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrTabMismatch indicates a notification addressed to a tab this client
	// does not own.
	ErrTabMismatch = errors.New("notification for unknown tab")

	// ErrEmptyMethod indicates an attempt to encode a request without a method.
	ErrEmptyMethod = errors.New("empty method")
)

// PayloadError describes why an inbound line could not be decoded.
type PayloadError struct {
	Reason string
	Line   string
}

// Error implements the error interface.
func (e *PayloadError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrMalformedPayload, e.Reason, truncate(e.Line, 120))
}

// Unwrap returns ErrMalformedPayload.
func (e *PayloadError) Unwrap() error {
	return ErrMalformedPayload
}

// ProtocolError reports a notification that violates the single-tab contract.
type ProtocolError struct {
	Tab string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: got %q, want %q", ErrTabMismatch, e.Tab, TabID)
}

// Unwrap returns ErrTabMismatch.
func (e *ProtocolError) Unwrap() error {
	return ErrTabMismatch
}

func malformed(line []byte, format string, args ...any) error {
	return &PayloadError{Reason: fmt.Sprintf(format, args...), Line: string(line)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
