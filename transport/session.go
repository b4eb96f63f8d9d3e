package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/petrel-labs/brook/core"
)

// DefaultUserAgent identifies the library when no override is configured.
const DefaultUserAgent = "brook-go"

// requestIDHeader carries the correlation identifier for each request. The
// session generates one per request; when the response carries its own, the
// response value wins.
const requestIDHeader = "X-Request-Id"

// Session performs HTTP requests and hands back raw responses with their
// unconsumed body sources. Session is safe for concurrent use; the sources
// it produces are single-consumer.
type Session struct {
	httpClient  *http.Client
	userAgent   string
	readTimeout time.Duration
	headers     http.Header
	token       core.Secret
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(s *Session) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithReadTimeout bounds how long a single body read may wait for data.
// Zero (the default) disables the bound. When a read exceeds it, the body
// surfaces a *core.ReadTimeoutError and the stream is unusable afterwards.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// WithHeader adds an extra header to include in every request.
func WithHeader(key, value string) Option {
	return func(s *Session) {
		if s.headers == nil {
			s.headers = make(http.Header)
		}
		s.headers.Add(key, value)
	}
}

// WithBearerToken authenticates every request with the given token.
func WithBearerToken(token core.Secret) Option {
	return func(s *Session) {
		s.token = token
	}
}

// New creates a Session with the given options.
func New(opts ...Option) *Session {
	s := &Session{
		httpClient: http.DefaultClient,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadTimeout returns the configured per-read bound, zero when disabled.
func (s *Session) ReadTimeout() time.Duration {
	return s.readTimeout
}

// Do performs the request and returns the raw response with its body source
// still unconsumed. HTTP error statuses are returned as responses, not
// errors; transport failures are wrapped as core.ErrNetwork unless the
// context ended first.
func (s *Session) Do(ctx context.Context, req *core.Request) (*core.RawResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		return nil, newNetworkError(req.URL, err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("User-Agent", s.userAgent)
	httpReq.Header.Set(requestIDHeader, requestID)
	for key, values := range s.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if !s.token.IsEmpty() {
		httpReq.Header.Set("Authorization", "Bearer "+s.token.Expose())
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		// Cancellation is never reported as a network failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, newNetworkError(req.URL, err)
	}

	if id := resp.Header.Get(requestIDHeader); id != "" {
		requestID = id
	}

	return &core.RawResponse{
		Status:        resp.StatusCode,
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
		RequestID:     requestID,
		Source:        newHTTPSource(resp.Body, req.URL, s.readTimeout),
	}, nil
}

// newNetworkError wraps transport failures with endpoint identity.
func newNetworkError(endpoint string, err error) error {
	return &core.TransferError{
		Endpoint: endpoint,
		Message:  err.Error(),
		Err:      core.ErrNetwork,
	}
}

// Compile-time check that Session implements core.Session.
var _ core.Session = (*Session)(nil)
