package core

import (
	"context"
	"net/http"
	"time"
)

// Session is the interface transports must implement. A Session performs one
// request and hands back the raw response with its unconsumed byte source.
// Sessions SHOULD be safe for concurrent calls; the bodies they produce are
// single-consumer.
type Session interface {
	// Do performs the request. On success the RawResponse owns an open
	// Source positioned at the first body byte (emptySource-like for
	// bodyless methods). Transport failures are reported as errors wrapping
	// ErrNetwork; HTTP error statuses are returned as responses, not
	// errors.
	Do(ctx context.Context, req *Request) (*RawResponse, error)
}

// Client is the main entry point for performing transfers. It drives a
// Session and adds status mapping, request-phase retries, telemetry, and
// declared-length enforcement on the returned bodies.
// Client is safe for concurrent use.
type Client struct {
	session   Session
	telemetry TelemetryHook
	retry     RetryPolicy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new Client with the given session and options.
func NewClient(s Session, opts ...ClientOption) *Client {
	c := &Client{
		session:   s,
		telemetry: NoopTelemetryHook{},
		retry:     DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTelemetry sets the telemetry hook for the client.
func WithTelemetry(h TelemetryHook) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.telemetry = h
		}
	}
}

// WithRetryPolicy sets the retry policy for the client.
func WithRetryPolicy(r RetryPolicy) ClientOption {
	return func(c *Client) {
		if r != nil {
			c.retry = r
		}
	}
}

// Session returns the underlying session.
func (c *Client) Session() Session {
	return c.session
}

// Get performs a GET and returns the response with a streaming,
// length-checked Body. Only the request phase is retried; once a body is
// handed out, its reads are never retried (a failed body is not resumable).
// The caller must close the body.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url)
}

// Head performs a HEAD and returns the response metadata. The returned Body
// is empty with checking disabled; ContentLength carries what the endpoint
// declared.
func (c *Client) Head(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodHead, url)
}

func (c *Client) do(ctx context.Context, method, url string) (*Response, error) {
	if url == "" {
		return nil, ErrURLRequired
	}

	start := time.Now()
	c.telemetry.OnTransferStart(TransferStartEvent{
		Method: method,
		URL:    url,
		Start:  start,
	})

	var raw *RawResponse
	var err error

	// Execute with retry logic. Error statuses close the raw source before
	// the next attempt so connections are not leaked across retries.
retryLoop:
	for attempt := 0; ; attempt++ {
		raw, err = c.session.Do(ctx, &Request{Method: method, URL: url})
		if err == nil {
			if serr := statusError(raw, url); serr != nil {
				if raw.Source != nil {
					raw.Source.Close()
				}
				raw, err = nil, serr
			}
		}
		if err == nil {
			break
		}

		delay, shouldRetry := c.retry.NextDelay(attempt, err)
		if !shouldRetry {
			break
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			break retryLoop
		case <-time.After(delay):
			continue
		}
	}

	if err != nil {
		c.telemetry.OnTransferEnd(TransferEndEvent{
			Method: method,
			URL:    url,
			Start:  start,
			End:    time.Now(),
			Err:    err,
		})
		return nil, err
	}

	resp := &Response{
		Status:        raw.Status,
		Header:        raw.Header,
		ContentLength: raw.ContentLength,
		RequestID:     raw.RequestID,
	}
	src := raw.Source
	if method == http.MethodHead || src == nil {
		if src != nil {
			src.Close()
		}
		resp.Body = NewBody(emptySource{}, 0)
	} else {
		resp.Body = NewBody(src, declaredLength(raw.ContentLength))
	}

	// Telemetry completes when the body does, carrying the final count.
	resp.Body.onClose = func(b *Body) {
		c.telemetry.OnTransferEnd(TransferEndEvent{
			Method:    method,
			URL:       url,
			Status:    resp.Status,
			RequestID: resp.RequestID,
			Start:     start,
			End:       time.Now(),
			BytesRead: b.BytesRead(),
		})
	}
	return resp, nil
}
