package api

import (
	"errors"
	"net/http"

	"github.com/okian/fanpulse/internal/adapters/eventsource"
	"github.com/okian/fanpulse/internal/adapters/repository"
	service "github.com/okian/fanpulse/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("backpressure")
	ErrRateLimited  = errors.New("rate limited")
)

// opError tags an error with the handler operation that produced it and
// the kind used to pick a status code.
type opError struct {
	op   string
	kind error
	err  error
	// derived kinds come from err's own chain and are not printed twice.
	derived bool
}

func (e *opError) Error() string {
	switch {
	case e.err == nil:
		return e.op + ": " + e.kind.Error()
	case e.derived:
		return e.op + ": " + e.err.Error()
	default:
		return e.op + ": " + e.kind.Error() + ": " + e.err.Error()
	}
}

func (e *opError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// WrapKind wraps err as kind raised by op.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// Wrap tags err with op, deriving the kind from the error chain.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, kind: kindOf(err), err: err, derived: true}
}

func kindOf(err error) error {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidQuery),
		errors.Is(err, service.ErrInvalidEvent),
		errors.Is(err, eventsource.ErrFormat):
		return ErrBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		return ErrBackpressure
	case errors.Is(err, ErrRateLimited):
		return ErrRateLimited
	case errors.Is(err, service.ErrNotStarted):
		return service.ErrNotStarted
	default:
		return err
	}
}

// statusFor maps an error chain to an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch kindOf(err) {
	case ErrBadRequest:
		return http.StatusBadRequest, "bad_request"
	case ErrNotFound:
		return http.StatusNotFound, "not_found"
	case ErrBackpressure:
		return http.StatusTooManyRequests, "backpressure"
	case ErrRateLimited:
		return http.StatusTooManyRequests, "rate_limited"
	case service.ErrNotStarted:
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
