package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a request failure.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from this package.
	KindUnknown Kind = iota
	// KindNotFound means the resource id has no record (HTTP 404).
	KindNotFound
	// KindNetwork means the transport failed and no response arrived.
	KindNetwork
	// KindServer means the server answered with a non-2xx status.
	KindServer
	// KindChat is any failure of the chat endpoint.
	KindChat
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindNetwork:
		return "network error"
	case KindServer:
		return "server error"
	case KindChat:
		return "chat error"
	}
	return "unknown"
}

// Error is the failure returned by every Client operation.
type Error struct {
	Kind Kind
	// Op names the failed operation, e.g. "fetch page".
	Op string
	// Status is the HTTP status code, zero for network failures.
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: %s (%d %s): %v", e.Op, e.Kind, e.Status, http.StatusText(e.Status), e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (%d %s)", e.Op, e.Kind, e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a KindNotFound failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// statusError maps a non-2xx response status onto an *Error.
func statusError(op string, status int) *Error {
	if status == http.StatusNotFound {
		return &Error{Kind: KindNotFound, Op: op, Status: status}
	}
	return &Error{Kind: KindServer, Op: op, Status: status}
}
