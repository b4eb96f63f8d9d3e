package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// WaiterSpec describes a named polling condition: the method used for each
// poll and the acceptance check applied to successful responses.
type WaiterSpec struct {
	// Method is the HTTP method used for each poll.
	Method string

	// Accept reports whether the response satisfies the waiter. It must not
	// retain the response; the poll loop closes the body after the check.
	Accept func(*Response) bool
}

// waiterRegistry holds registered waiter specs.
var (
	waiterMu sync.RWMutex
	waiters  = make(map[string]WaiterSpec)
)

// RegisterWaiter adds a named waiter spec to the registry. If a waiter with
// the same name is already registered, it is overwritten.
//
// Example:
//
//	core.RegisterWaiter("json-endpoint-up", core.WaiterSpec{
//	    Method: http.MethodHead,
//	    Accept: func(r *core.Response) bool {
//	        return r.Status == 200 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
//	    },
//	})
func RegisterWaiter(name string, spec WaiterSpec) {
	waiterMu.Lock()
	defer waiterMu.Unlock()
	waiters[name] = spec
}

// WaiterNames returns the names of all registered waiters in sorted order.
func WaiterNames() []string {
	waiterMu.RLock()
	defer waiterMu.RUnlock()

	names := make([]string, 0, len(waiters))
	for name := range waiters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupWaiter(name string) (WaiterSpec, bool) {
	waiterMu.RLock()
	defer waiterMu.RUnlock()
	spec, ok := waiters[name]
	return spec, ok
}

func init() {
	RegisterWaiter("endpoint-up", WaiterSpec{
		Method: http.MethodHead,
		Accept: func(r *Response) bool {
			return r.Status >= 200 && r.Status < 300
		},
	})
	RegisterWaiter("content-available", WaiterSpec{
		Method: http.MethodGet,
		Accept: func(r *Response) bool {
			return r.Status >= 200 && r.Status < 300 && r.ContentLength > 0
		},
	})
}

// WaiterConfig controls the poll loop.
type WaiterConfig struct {
	Delay       time.Duration // Pause between polls (default: 2s)
	MaxAttempts int           // Polls before giving up (default: 10)
}

// WaiterOption configures a Waiter obtained from Client.GetWaiter.
type WaiterOption func(*WaiterConfig)

// WithWaiterDelay sets the pause between polls.
func WithWaiterDelay(d time.Duration) WaiterOption {
	return func(cfg *WaiterConfig) {
		if d > 0 {
			cfg.Delay = d
		}
	}
}

// WithMaxAttempts sets how many polls are made before giving up.
func WithMaxAttempts(n int) WaiterOption {
	return func(cfg *WaiterConfig) {
		if n > 0 {
			cfg.MaxAttempts = n
		}
	}
}

// Waiter polls an endpoint until a registered condition holds.
type Waiter struct {
	name   string
	spec   WaiterSpec
	cfg    WaiterConfig
	client *Client
}

// GetWaiter returns the named waiter bound to this client.
func (c *Client) GetWaiter(name string, opts ...WaiterOption) (*Waiter, error) {
	spec, ok := lookupWaiter(name)
	if !ok {
		return nil, fmt.Errorf("waiter does not exist: %s", name)
	}
	cfg := WaiterConfig{
		Delay:       2 * time.Second,
		MaxAttempts: 10,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Waiter{name: name, spec: spec, cfg: cfg, client: c}, nil
}

// Name returns the waiter's registered name.
func (w *Waiter) Name() string {
	return w.name
}

// Wait polls url until the waiter's condition holds, the attempt budget is
// exhausted, or ctx ends. Poll failures are absorbed into the loop; context
// errors end it immediately. On exhaustion it returns *WaiterError wrapping
// the last poll failure, if any.
func (w *Waiter) Wait(ctx context.Context, url string) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := w.client.do(ctx, w.spec.Method, url)
		switch {
		case err == nil:
			ok := w.spec.Accept(resp)
			resp.Body.Close()
			if ok {
				return nil
			}
			lastErr = nil
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			lastErr = err
		}

		if attempt >= w.cfg.MaxAttempts {
			return &WaiterError{Name: w.name, Attempts: attempt, LastErr: lastErr}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Delay):
		}
	}
}

// WaiterError reports that a waiter gave up before its condition held.
type WaiterError struct {
	Name     string
	Attempts int
	LastErr  error
}

// Error implements the error interface.
func (e *WaiterError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("waiter %s: gave up after %d attempts: %v",
			e.Name, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("waiter %s: condition not met after %d attempts",
		e.Name, e.Attempts)
}

// Unwrap returns the last poll failure, if any.
func (e *WaiterError) Unwrap() error {
	return e.LastErr
}
