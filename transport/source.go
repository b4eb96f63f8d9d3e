package transport

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/petrel-labs/brook/core"
)

// readResult carries one body read from the fetch goroutine back to Read.
type readResult struct {
	data []byte
	err  error
}

// httpSource adapts an http.Response body to core.Source and enforces an
// optional per-read timeout. Reads are single-consumer.
type httpSource struct {
	body    io.ReadCloser
	url     string
	timeout time.Duration

	inflight chan readResult // one outstanding read, nil when idle
	rest     []byte          // bytes a past read delivered beyond the caller's buffer
	restErr  error           // error held back until rest drains
	readErr  error           // sticky timeout failure, the stream is dead once set

	closeOnce sync.Once
	closeErr  error
}

func newHTTPSource(body io.ReadCloser, url string, timeout time.Duration) *httpSource {
	return &httpSource{body: body, url: url, timeout: timeout}
}

// URL returns the endpoint this source streams from.
func (s *httpSource) URL() string {
	return s.url
}

// Read fills p with body bytes. With a timeout configured, a read that
// produces no data within the bound fails with an error wrapping
// os.ErrDeadlineExceeded and poisons the source.
func (s *httpSource) Read(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.readErr != nil {
		return 0, s.readErr
	}
	if len(p) == 0 {
		return 0, nil
	}
	if len(s.rest) > 0 {
		n := copy(p, s.rest)
		s.rest = s.rest[n:]
		if len(s.rest) == 0 && s.restErr != nil {
			err := s.restErr
			s.restErr = nil
			return n, err
		}
		return n, nil
	}
	if s.timeout <= 0 {
		return s.body.Read(p)
	}
	return s.deadlineRead(ctx, p)
}

// deadlineRead performs one read on the fetch goroutine and waits for its
// result, the timeout, or ctx, whichever ends first. A read that outlives
// the timeout poisons the source; bytes it may deliver later are discarded.
func (s *httpSource) deadlineRead(ctx context.Context, p []byte) (int, error) {
	if s.inflight == nil {
		ch := make(chan readResult, 1)
		buf := make([]byte, len(p))
		go func() {
			n, err := s.body.Read(buf)
			ch <- readResult{data: buf[:n], err: err}
		}()
		s.inflight = ch
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case res := <-s.inflight:
		s.inflight = nil
		n := copy(p, res.data)
		if n < len(res.data) {
			s.rest = res.data[n:]
			s.restErr = res.err
			return n, nil
		}
		return n, res.err
	case <-ctx.Done():
		// The outstanding read stays in flight; a later call picks up its
		// result.
		return 0, ctx.Err()
	case <-timer.C:
		s.readErr = fmt.Errorf("no data received in %v: %w", s.timeout, os.ErrDeadlineExceeded)
		return 0, s.readErr
	}
}

// Close shuts down the underlying body. An in-flight read unblocks with an
// error; its result is discarded. Close is idempotent.
func (s *httpSource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// Compile-time check that httpSource implements core.Source.
var _ core.Source = (*httpSource)(nil)
