package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the server rejects the session token
// or the Telegram init data.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a request the server completed but refused: a non-2xx status
// or a `success: false` envelope. The message is the server-provided one
// when present.
type Error struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: request failed (status %d)", e.Endpoint, e.Status)
}

// Is lets callers match 401/403 responses against ErrUnauthorized.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && (e.Status == 401 || e.Status == 403)
}

// DecodeError is a response body that did not match the expected shape.
// It fails fast instead of letting a half-decoded payload leak into the
// bootstrap chain.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decoding response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
