package core

import (
	"errors"
	"fmt"
	"net/http"
)

// TransferError represents a failed transfer with full context.
type TransferError struct {
	Endpoint  string
	Status    int
	RequestID string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *TransferError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (status=%d, request_id=%s)",
			e.Endpoint, e.Message, e.Status, e.RequestID)
	}
	return fmt.Sprintf("%s: %s (status=%d)", e.Endpoint, e.Message, e.Status)
}

// Unwrap returns the underlying error for error chaining.
func (e *TransferError) Unwrap() error {
	return e.Err
}

// IncompleteReadError reports that the source reached end-of-data before
// delivering the declared number of bytes (or delivered more). It carries
// both counts; the body is unusable afterwards.
type IncompleteReadError struct {
	BytesRead      int64
	DeclaredLength int64
}

// Error implements the error interface.
func (e *IncompleteReadError) Error() string {
	return fmt.Sprintf("incomplete read: %d bytes read, %d expected",
		e.BytesRead, e.DeclaredLength)
}

// Unwrap returns ErrIncompleteBody so errors.Is can classify the failure.
func (e *IncompleteReadError) Unwrap() error {
	return ErrIncompleteBody
}

// ReadTimeoutError reports that the underlying source timed out while a body
// read was in flight. It wraps the originating error and names the endpoint
// being read when the source exposes one.
type ReadTimeoutError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *ReadTimeoutError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("read timeout on %q: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("read timeout: %v", e.Err)
}

// Unwrap returns the originating error.
func (e *ReadTimeoutError) Unwrap() error {
	return e.Err
}

// Is reports a match for ErrReadTimeout in addition to the unwrap chain.
func (e *ReadTimeoutError) Is(target error) bool {
	return target == ErrReadTimeout
}

// Timeout reports true so os.IsTimeout recognizes the error.
func (e *ReadTimeoutError) Timeout() bool {
	return true
}

// Sentinel errors for classification.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrRateLimited    = errors.New("rate limited")
	ErrBadRequest     = errors.New("bad request")
	ErrNotFound       = errors.New("not found")
	ErrServer         = errors.New("server error")
	ErrNetwork        = errors.New("network error")
	ErrIncompleteBody = errors.New("incomplete body")
	ErrReadTimeout    = errors.New("read timeout")
)

// Validation errors with actionable guidance.
var (
	ErrURLRequired = errors.New("url required: pass an absolute http(s) URL, e.g., client.Get(ctx, \"https://example.com/data\")")
	ErrBodyClosed  = errors.New("body closed: reads are not valid after Close")
)

// statusError maps a failed HTTP status to a *TransferError carrying the
// matching sentinel. Statuses below 400 map to nil.
func statusError(raw *RawResponse, endpoint string) error {
	if raw.Status < 400 {
		return nil
	}
	var sentinel error
	switch {
	case raw.Status == http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case raw.Status == http.StatusForbidden:
		sentinel = ErrForbidden
	case raw.Status == http.StatusNotFound:
		sentinel = ErrNotFound
	case raw.Status == http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	case raw.Status >= 500:
		sentinel = ErrServer
	default:
		sentinel = ErrBadRequest
	}
	return &TransferError{
		Endpoint:  endpoint,
		Status:    raw.Status,
		RequestID: raw.RequestID,
		Message:   http.StatusText(raw.Status),
		Err:       sentinel,
	}
}
