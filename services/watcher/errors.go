package watcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse means the fetch succeeded but the body was blank.
var ErrEmptyResponse = errors.New("empty response body")

// TransportError wraps a network-level failure (connect, timeout) from a
// fetch or claim. Never retried within a run, the next scheduled run is
// the retry policy.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BadStatusError is a non-2xx response from the upstream.
type BadStatusError struct {
	Code int
	Body string
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}

// DecodeError means the body was not parseable as structured data.
type DecodeError struct {
	Excerpt string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode payload: %s", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MalformedPayloadError means the payload parsed but the expected listing
// key was absent. Keys records what was actually there.
type MalformedPayloadError struct {
	Missing string
	Keys    []string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf(
		"payload missing expected %q key, present keys: [%s]",
		e.Missing,
		strings.Join(e.Keys, ", "),
	)
}

// Truncate caps upstream bodies surfaced in alerts and error details.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
