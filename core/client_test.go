package core

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockSession is a test implementation of Session.
type mockSession struct {
	doFunc      func(ctx context.Context, req *Request) (*RawResponse, error)
	callCount   int
	lastRequest *Request
	mu          sync.Mutex
}

func (m *mockSession) Do(ctx context.Context, req *Request) (*RawResponse, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = req
	m.mu.Unlock()

	if m.doFunc != nil {
		return m.doFunc(ctx, req)
	}
	return okResponse("hello world", req), nil
}

func (m *mockSession) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// okResponse builds a 200 RawResponse serving body with a matching declared
// length.
func okResponse(body string, req *Request) *RawResponse {
	src := &fakeSource{data: []byte(body)}
	if req != nil && req.Method == http.MethodHead {
		src = &fakeSource{}
	}
	return &RawResponse{
		Status:        http.StatusOK,
		Header:        http.Header{"Content-Type": []string{"application/octet-stream"}},
		ContentLength: int64(len(body)),
		RequestID:     "req-1",
		Source:        src,
	}
}

// mockTelemetryHook records telemetry events for testing.
type mockTelemetryHook struct {
	startEvents []TransferStartEvent
	endEvents   []TransferEndEvent
	mu          sync.Mutex
}

func (h *mockTelemetryHook) OnTransferStart(e TransferStartEvent) {
	h.mu.Lock()
	h.startEvents = append(h.startEvents, e)
	h.mu.Unlock()
}

func (h *mockTelemetryHook) OnTransferEnd(e TransferEndEvent) {
	h.mu.Lock()
	h.endEvents = append(h.endEvents, e)
	h.mu.Unlock()
}

func (h *mockTelemetryHook) ends() []TransferEndEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]TransferEndEvent(nil), h.endEvents...)
}

func fastRetry() RetryPolicy {
	return NewRetryPolicy(RetryConfig{
		MaxRetries: 5,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
		Jitter:     0,
	})
}

func TestNewClient(t *testing.T) {
	s := &mockSession{}
	c := NewClient(s)

	if c == nil {
		t.Fatal("NewClient returned nil")
	}
	if c.Session() != Session(s) {
		t.Error("session not set correctly")
	}
}

func TestNewClientWithOptions(t *testing.T) {
	s := &mockSession{}
	hook := &mockTelemetryHook{}
	retry := NewRetryPolicy(RetryConfig{MaxRetries: 5})

	c := NewClient(s,
		WithTelemetry(hook),
		WithRetryPolicy(retry),
	)

	if c.telemetry != TelemetryHook(hook) {
		t.Error("telemetry hook not set")
	}
	if c.retry != retry {
		t.Error("retry policy not set")
	}

	// Nil options keep the defaults rather than clearing them.
	c = NewClient(s, WithTelemetry(nil), WithRetryPolicy(nil))
	if c.telemetry == nil || c.retry == nil {
		t.Error("nil options must not clear defaults")
	}
}

func TestClientGet(t *testing.T) {
	s := &mockSession{}
	c := NewClient(s)
	ctx := context.Background()

	resp, err := c.Get(ctx, "http://example.com/data")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if resp.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want %q", resp.RequestID, "req-1")
	}
	if resp.ContentLength != 11 {
		t.Errorf("ContentLength = %d, want 11", resp.ContentLength)
	}
	if resp.Body.DeclaredLength() != 11 {
		t.Errorf("Body.DeclaredLength() = %d, want 11", resp.Body.DeclaredLength())
	}

	got, err := resp.Body.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("body = %q, want %q", got, "hello world")
	}

	if s.lastRequest.Method != http.MethodGet {
		t.Errorf("request method = %q, want GET", s.lastRequest.Method)
	}
}

func TestClientGetEmptyURL(t *testing.T) {
	c := NewClient(&mockSession{})

	if _, err := c.Get(context.Background(), ""); !errors.Is(err, ErrURLRequired) {
		t.Errorf("Get(\"\") error = %v, want ErrURLRequired", err)
	}
}

func TestClientGetUnknownLength(t *testing.T) {
	s := &mockSession{
		doFunc: func(ctx context.Context, req *Request) (*RawResponse, error) {
			return &RawResponse{
				Status:        http.StatusOK,
				Header:        http.Header{},
				ContentLength: -1, // chunked transfer, no declared length
				Source:        &fakeSource{data: []byte("chunked bytes")},
			}, nil
		},
	}
	c := NewClient(s)
	ctx := context.Background()

	resp, err := c.Get(ctx, "http://example.com/chunked")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != -1 {
		t.Errorf("ContentLength = %d, want -1 preserved", resp.ContentLength)
	}
	if resp.Body.DeclaredLength() != 0 {
		t.Errorf("Body.DeclaredLength() = %d, want 0 (unchecked)", resp.Body.DeclaredLength())
	}
	if _, err := resp.Body.ReadAll(ctx); err != nil {
		t.Errorf("ReadAll() error: %v", err)
	}
}

func TestClientGetStatusErrors(t *testing.T) {
	tests := []struct {
		status       int
		wantSentinel error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrBadRequest},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			src := &fakeSource{data: []byte("error page")}
			s := &mockSession{
				doFunc: func(ctx context.Context, req *Request) (*RawResponse, error) {
					return &RawResponse{
						Status:    tt.status,
						Header:    http.Header{},
						RequestID: "req-err",
						Source:    src,
					}, nil
				},
			}
			c := NewClient(s, WithRetryPolicy(fastRetry()))

			_, err := c.Get(context.Background(), "http://example.com/x")
			if !errors.Is(err, tt.wantSentinel) {
				t.Fatalf("Get() error = %v, want %v", err, tt.wantSentinel)
			}
			var te *TransferError
			if !errors.As(err, &te) {
				t.Fatalf("Get() error = %v, want *TransferError", err)
			}
			if te.Status != tt.status {
				t.Errorf("TransferError.Status = %d, want %d", te.Status, tt.status)
			}
			if te.RequestID != "req-err" {
				t.Errorf("TransferError.RequestID = %q, want %q", te.RequestID, "req-err")
			}
			if src.closeCalls == 0 {
				t.Error("error response source was not closed")
			}
		})
	}
}

func TestClientGetRetriesServerErrors(t *testing.T) {
	calls := 0
	s := &mockSession{
		doFunc: func(ctx context.Context, req *Request) (*RawResponse, error) {
			calls++
			if calls < 3 {
				return &RawResponse{Status: http.StatusServiceUnavailable, Header: http.Header{}, Source: &fakeSource{}}, nil
			}
			return okResponse("recovered", req), nil
		},
	}
	c := NewClient(s, WithRetryPolicy(fastRetry()))
	ctx := context.Background()

	resp, err := c.Get(ctx, "http://example.com/flaky")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	defer resp.Body.Close()

	if calls != 3 {
		t.Errorf("session calls = %d, want 3 (initial + 2 retries)", calls)
	}
	got, err := resp.Body.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if string(got) != "recovered" {
		t.Errorf("body = %q, want %q", got, "recovered")
	}
}

func TestClientGetNoRetryOnNotFound(t *testing.T) {
	s := &mockSession{
		doFunc: func(ctx context.Context, req *Request) (*RawResponse, error) {
			return &RawResponse{Status: http.StatusNotFound, Header: http.Header{}, Source: &fakeSource{}}, nil
		},
	}
	c := NewClient(s, WithRetryPolicy(fastRetry()))

	_, err := c.Get(context.Background(), "http://example.com/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if s.calls() != 1 {
		t.Errorf("session calls = %d, want 1 (no retries)", s.calls())
	}
}

func TestClientGetRetryRespectsContext(t *testing.T) {
	s := &mockSession{
		doFunc: func(ctx context.Context, req *Request) (*RawResponse, error) {
			return nil, &TransferError{Endpoint: req.URL, Message: "dial failed", Err: ErrNetwork}
		},
	}
	retry := NewRetryPolicy(RetryConfig{
		MaxRetries: 5,
		BaseDelay:  time.Second, // long delay, cancellation must win
	})
	c := NewClient(s, WithRetryPolicy(retry))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "http://example.com/x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
}

func TestClientHead(t *testing.T) {
	s := &mockSession{
		doFunc: func(ctx context.Context, req *Request) (*RawResponse, error) {
			return &RawResponse{
				Status:        http.StatusOK,
				Header:        http.Header{"Content-Length": []string{"5000"}},
				ContentLength: 5000,
				Source:        &fakeSource{},
			}, nil
		},
	}
	c := NewClient(s)
	ctx := context.Background()

	resp, err := c.Head(ctx, "http://example.com/big")
	if err != nil {
		t.Fatalf("Head() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != 5000 {
		t.Errorf("ContentLength = %d, want 5000", resp.ContentLength)
	}
	if s.lastRequest.Method != http.MethodHead {
		t.Errorf("request method = %q, want HEAD", s.lastRequest.Method)
	}

	// A HEAD body is empty and never fails length validation even though a
	// length was declared for the resource.
	got, err := resp.Body.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll() on HEAD body error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("HEAD body = %q, want empty", got)
	}
}

func TestClientTelemetry(t *testing.T) {
	s := &mockSession{}
	hook := &mockTelemetryHook{}
	c := NewClient(s, WithTelemetry(hook))
	ctx := context.Background()

	resp, err := c.Get(ctx, "http://example.com/data")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if len(hook.startEvents) != 1 {
		t.Fatalf("start events = %d, want 1", len(hook.startEvents))
	}
	if hook.startEvents[0].Method != http.MethodGet || hook.startEvents[0].URL != "http://example.com/data" {
		t.Errorf("start event = %+v, want GET http://example.com/data", hook.startEvents[0])
	}

	// The end event waits for the body: nothing yet.
	if got := len(hook.ends()); got != 0 {
		t.Fatalf("end events before Close = %d, want 0", got)
	}

	if _, err := resp.Body.ReadAll(ctx); err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	resp.Body.Close()

	ends := hook.ends()
	if len(ends) != 1 {
		t.Fatalf("end events after Close = %d, want 1", len(ends))
	}
	e := ends[0]
	if e.Status != http.StatusOK || e.BytesRead != 11 || e.Err != nil {
		t.Errorf("end event = %+v, want status 200, 11 bytes, nil err", e)
	}
	if e.Duration() < 0 {
		t.Errorf("Duration() = %v, want non-negative", e.Duration())
	}

	// Closing again must not duplicate the event.
	resp.Body.Close()
	if got := len(hook.ends()); got != 1 {
		t.Errorf("end events after second Close = %d, want 1", got)
	}
}

func TestClientTelemetryOnFailure(t *testing.T) {
	s := &mockSession{
		doFunc: func(ctx context.Context, req *Request) (*RawResponse, error) {
			return &RawResponse{Status: http.StatusNotFound, Header: http.Header{}, Source: &fakeSource{}}, nil
		},
	}
	hook := &mockTelemetryHook{}
	c := NewClient(s, WithTelemetry(hook))

	_, err := c.Get(context.Background(), "http://example.com/missing")
	if err == nil {
		t.Fatal("Get() should fail")
	}

	ends := hook.ends()
	if len(ends) != 1 {
		t.Fatalf("end events = %d, want 1", len(ends))
	}
	if !errors.Is(ends[0].Err, ErrNotFound) {
		t.Errorf("end event err = %v, want ErrNotFound", ends[0].Err)
	}
}

func TestClientConcurrentUse(t *testing.T) {
	s := &mockSession{}
	c := NewClient(s)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.Get(context.Background(), "http://example.com/data")
			if err != nil {
				t.Errorf("concurrent Get failed: %v", err)
				return
			}
			if _, err := resp.Body.ReadAll(context.Background()); err != nil {
				t.Errorf("concurrent ReadAll failed: %v", err)
			}
			resp.Body.Close()
		}()
	}
	wg.Wait()

	if s.calls() != 10 {
		t.Errorf("session calls = %d, want 10", s.calls())
	}
}
