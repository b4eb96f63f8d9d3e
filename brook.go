// Package brook re-exports the core streaming types so small consumers can
// import a single path. The full API lives in the core and transport
// packages.
package brook

import (
	"github.com/petrel-labs/brook/core"
	"github.com/petrel-labs/brook/transport"
)

// Streaming types.
type (
	Body   = core.Body
	Source = core.Source
)

// Client types.
type (
	Client   = core.Client
	Response = core.Response
	Session  = transport.Session
)

// Typed errors.
type (
	IncompleteReadError = core.IncompleteReadError
	ReadTimeoutError    = core.ReadTimeoutError
	TransferError       = core.TransferError
	WaiterError         = core.WaiterError
)

// DefaultChunkSize is the chunk size used by default iteration.
const DefaultChunkSize = core.DefaultChunkSize

// Constructors.
var (
	NewBody         = core.NewBody
	NewReaderSource = core.NewReaderSource
	NewClient       = core.NewClient
	NewSession      = transport.New
	NewSecret       = core.NewSecret
)

// Session options.
var (
	WithHTTPClient  = transport.WithHTTPClient
	WithUserAgent   = transport.WithUserAgent
	WithReadTimeout = transport.WithReadTimeout
	WithHeader      = transport.WithHeader
	WithBearerToken = transport.WithBearerToken
)

// Client options.
var (
	WithTelemetry   = core.WithTelemetry
	WithRetryPolicy = core.WithRetryPolicy
)

// Sentinel errors, errors.Is-matchable.
var (
	ErrIncompleteBody = core.ErrIncompleteBody
	ErrReadTimeout    = core.ErrReadTimeout
	ErrNetwork        = core.ErrNetwork
	ErrNotFound       = core.ErrNotFound
	ErrUnauthorized   = core.ErrUnauthorized
	ErrForbidden      = core.ErrForbidden
	ErrRateLimited    = core.ErrRateLimited
	ErrServer         = core.ErrServer
	ErrBadRequest     = core.ErrBadRequest
	ErrBodyClosed     = core.ErrBodyClosed
)
