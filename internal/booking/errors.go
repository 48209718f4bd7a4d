package booking

import (
	"errors"
	"strconv"
)

// Kind classifies a booking failure so transports can pick a status code
// without inspecting messages.
type Kind string

const (
	KindInvalidRequest Kind = "invalid_request"
	KindUnavailable    Kind = "seats_unavailable"
	KindContention     Kind = "contention"
	KindStorageFault   Kind = "storage_fault"
)

// Error is the typed failure returned by Service and Coordinator.
// Message is safe to show to callers; Err carries the underlying cause
// for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, booking.ErrContention).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest, Message: "invalid request"}
	ErrUnavailable    = &Error{Kind: KindUnavailable, Message: "seats not available"}
	ErrContention     = &Error{Kind: KindContention, Message: "too much contention, try again"}
	ErrStorageFault   = &Error{Kind: KindStorageFault, Message: "storage failure"}
)

func invalidRequest(msg string) error {
	return &Error{Kind: KindInvalidRequest, Message: msg}
}

func unavailable() error {
	return &Error{Kind: KindUnavailable, Message: "seats not available"}
}

func contention(attempts int) error {
	return &Error{Kind: KindContention, Message: "too much contention, try again", Err: errAttemptsExhausted(attempts)}
}

func storageFault(err error) error {
	return &Error{Kind: KindStorageFault, Message: "storage failure", Err: err}
}

type errAttemptsExhausted int

func (n errAttemptsExhausted) Error() string {
	return "gave up after " + strconv.Itoa(int(n)) + " attempts"
}

// KindOf reports the Kind of err, or the empty Kind when err is not a
// booking error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
