package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"net"
	"os"
	"sync"

	"github.com/valyala/bytebufferpool"
)

// DefaultChunkSize is the chunk size used by the default iteration view and
// by Chunks and Lines when no size is given.
const DefaultChunkSize = 1024

// readAllScratchSize is the per-pull buffer size used by ReadAll.
const readAllScratchSize = 32 * 1024

// Body streams a response body from a [Source] while enforcing the length
// the transfer declared up front.
//
// A Body owns its source: Close releases it, and it is released exactly
// once. Bytes are delivered in source order and counted against the declared
// length; when the source reports end-of-data and the count disagrees, the
// failing call returns *[IncompleteReadError]. Source timeouts surface as
// *[ReadTimeoutError]; context cancellation is never swallowed or remapped.
//
// A declared length of zero means the length is unknown and checking is
// disabled.
//
// Body assumes a single consumer: calls must be sequential, and no internal
// locking is provided. After an IncompleteReadError or ReadTimeoutError the
// body is unusable and must be discarded.
type Body struct {
	src            Source
	declaredLength int64
	bytesRead      int64
	srcEOF         bool

	closed    bool
	closeOnce sync.Once
	closeErr  error
	onClose   func(*Body)

	// default iteration cursor
	cur     []byte
	iterErr error
	done    bool
}

// NewBody wraps src with declared-length accounting. No I/O is performed.
// Negative lengths are treated as unknown (zero).
func NewBody(src Source, declaredLength int64) *Body {
	if declaredLength < 0 {
		declaredLength = 0
	}
	return &Body{src: src, declaredLength: declaredLength}
}

// Read returns up to amt bytes from the source in a single pull.
//
//   - amt == 0 returns an empty result immediately, without touching the
//     source, even at end-of-stream.
//   - amt < 0 reads everything remaining, like [Body.ReadAll].
//   - amt > 0 performs exactly one source read.
//
// At end-of-data the returned slice is empty and the declared length is
// verified.
func (b *Body) Read(ctx context.Context, amt int) ([]byte, error) {
	if amt == 0 {
		return nil, nil
	}
	if b.closed {
		return nil, ErrBodyClosed
	}
	if amt < 0 {
		return b.ReadAll(ctx)
	}

	p := make([]byte, amt)
	n, err := b.readSource(ctx, p)
	if err == io.EOF {
		if verr := b.verifyLength(); verr != nil {
			return nil, verr
		}
		return nil, nil
	}
	if err != nil {
		return nil, b.wrapReadError(err)
	}
	b.bytesRead += int64(n)
	return p[:n], nil
}

// ReadAll drains the source and returns the remaining bytes, verifying the
// declared length at end-of-data. The context is consulted between pulls.
func (b *Body) ReadAll(ctx context.Context) ([]byte, error) {
	if b.closed {
		return nil, ErrBodyClosed
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	scratch := make([]byte, readAllScratchSize)
	for {
		n, err := b.readSource(ctx, scratch)
		if n > 0 {
			b.bytesRead += int64(n)
			buf.Write(scratch[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, b.wrapReadError(err)
		}
	}
	if err := b.verifyLength(); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

// ReadInto fills p from the source in a single pull and returns the count
// written. A zero-capacity buffer returns 0 without touching the source.
// A zero count with a nil error signals end-of-data; partial fills are
// normal and not an error.
func (b *Body) ReadInto(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.closed {
		return 0, ErrBodyClosed
	}

	n, err := b.readSource(ctx, p)
	if err == io.EOF {
		if verr := b.verifyLength(); verr != nil {
			return 0, verr
		}
		return 0, nil
	}
	if err != nil {
		return 0, b.wrapReadError(err)
	}
	b.bytesRead += int64(n)
	return n, nil
}

// Close releases the underlying source. It is idempotent: the source is
// closed exactly once and later calls return the first result.
func (b *Body) Close() error {
	b.closeOnce.Do(func() {
		b.closed = true
		if b.src != nil {
			b.closeErr = b.src.Close()
		}
		if b.onClose != nil {
			b.onClose(b)
		}
	})
	return b.closeErr
}

// Next advances the default iteration view: the body as a lazy, finite,
// non-restartable sequence of DefaultChunkSize chunks. It reports false at
// end-of-stream or on error; check Err after the loop.
//
//	for body.Next(ctx) {
//	    process(body.Current())
//	}
//	if err := body.Err(); err != nil { ... }
func (b *Body) Next(ctx context.Context) bool {
	if b.done || b.iterErr != nil {
		return false
	}
	chunk, err := b.Read(ctx, DefaultChunkSize)
	if err != nil {
		b.iterErr = err
		return false
	}
	if len(chunk) == 0 {
		b.done = true
		return false
	}
	b.cur = chunk
	return true
}

// Current returns the chunk produced by the last successful Next.
func (b *Body) Current() []byte {
	return b.cur
}

// Err returns the error that terminated the default iteration, if any.
func (b *Body) Err() error {
	return b.iterErr
}

// Chunks returns a lazy sequence of chunks of at most chunkSize bytes, one
// source pull per step. Sizes below 1 fall back to DefaultChunkSize. The
// sequence is finite and non-restartable; it ends at end-of-stream, or with
// a final non-nil error. What Read returns per pull is yielded as is, never
// re-split or re-merged.
func (b *Body) Chunks(ctx context.Context, chunkSize int) iter.Seq2[[]byte, error] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return func(yield func([]byte, error) bool) {
		for {
			chunk, err := b.Read(ctx, chunkSize)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(chunk) == 0 {
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Lines returns a lazy sequence of lines with terminators stripped. Lines
// are split on \n and a trailing \r is removed, so \n and \r\n endings are
// handled transparently. Bytes after the last terminator are yielded as a
// final line. An empty body yields nothing. The split is independent of the
// chunk size used internally.
func (b *Body) Lines(ctx context.Context, chunkSize int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		pending := bytebufferpool.Get()
		defer bytebufferpool.Put(pending)

		for chunk, err := range b.Chunks(ctx, chunkSize) {
			if err != nil {
				yield(nil, err)
				return
			}
			pending.Write(chunk)
			for {
				i := bytes.IndexByte(pending.B, '\n')
				if i < 0 {
					break
				}
				line := pending.B[:i]
				if len(line) > 0 && line[len(line)-1] == '\r' {
					line = line[:len(line)-1]
				}
				if !yield(bytes.Clone(line), nil) {
					return
				}
				pending.B = append(pending.B[:0], pending.B[i+1:]...)
			}
		}
		if len(pending.B) > 0 {
			yield(bytes.Clone(pending.B), nil)
		}
	}
}

// Reader adapts the body to io.Reader for standard library consumers. The
// returned reader shares the body's single-consumer state and reports io.EOF
// at end-of-data.
func (b *Body) Reader(ctx context.Context) io.Reader {
	return &bodyReader{ctx: ctx, body: b}
}

// BytesRead returns the number of bytes delivered to the caller so far.
func (b *Body) BytesRead() int64 {
	return b.bytesRead
}

// DeclaredLength returns the length the transfer declared at construction.
// Zero means unknown.
func (b *Body) DeclaredLength() int64 {
	return b.declaredLength
}

// Closed reports whether Close has been called.
func (b *Body) Closed() bool {
	return b.closed
}

// readSource pulls at most len(p) bytes from the source. End-of-data is
// normalized to a bare (0, io.EOF): when a pull returns bytes together with
// io.EOF, the bytes are delivered now and the EOF is latched for the next
// call, so no call mixes data with a terminal signal.
func (b *Body) readSource(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if b.srcEOF {
		return 0, io.EOF
	}
	n, err := b.src.Read(ctx, p)
	if n < 0 {
		n = 0
	}
	switch {
	case err == nil && n == 0:
		b.srcEOF = true
		return 0, io.EOF
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		// A connection dropped mid-body reads as an unexpected EOF; treating
		// it as end-of-data lets length validation report the counts.
		b.srcEOF = true
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	case err != nil:
		// Bytes accompanying a real error are discarded: the failing call
		// must not deliver a partial success.
		return 0, err
	}
	return n, nil
}

// verifyLength checks the running count against the declared length at
// end-of-data. A zero declared length disables the check.
func (b *Body) verifyLength() error {
	if b.declaredLength > 0 && b.bytesRead != b.declaredLength {
		return &IncompleteReadError{
			BytesRead:      b.bytesRead,
			DeclaredLength: b.declaredLength,
		}
	}
	return nil
}

// wrapReadError remaps source timeouts to *ReadTimeoutError. Cancellation
// and every other failure pass through unchanged.
func (b *Body) wrapReadError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var nerr net.Error
	timeout := errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &nerr) && nerr.Timeout())
	if !timeout {
		return err
	}
	return &ReadTimeoutError{Endpoint: b.endpoint(), Err: err}
}

func (b *Body) endpoint() string {
	if u, ok := b.src.(interface{ URL() string }); ok {
		return u.URL()
	}
	return ""
}

type bodyReader struct {
	ctx  context.Context
	body *Body
}

func (r *bodyReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := r.body.ReadInto(r.ctx, p)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

var _ io.Reader = (*bodyReader)(nil)
