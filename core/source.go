package core

import (
	"context"
	"io"
)

// Source is the raw byte stream a [Body] consumes. It is produced by a
// transport (see the transport package) or adapted from an io.Reader with
// [NewReaderSource].
//
// Contract:
//   - Read fills p with up to len(p) bytes and returns the count.
//   - End-of-data is signaled by io.EOF. A final non-empty read MAY carry
//     io.EOF alongside its bytes; Body delivers the bytes first and reports
//     end-of-data on the following call.
//   - A (0, nil) return is also treated as end-of-data, as is
//     io.ErrUnexpectedEOF (a connection dropped mid-body).
//   - Read honors ctx: it returns promptly with ctx.Err() when the context
//     is cancelled while bytes are pending.
//   - Timeout failures surface as os.ErrDeadlineExceeded or a net.Error
//     whose Timeout method reports true; Body remaps them (see
//     [ReadTimeoutError]).
//
// A Source MAY additionally implement:
//
//	interface{ URL() string }
//
// to identify the endpoint it reads from. Body consults it only to enrich
// a wrapped timeout error.
type Source interface {
	Read(ctx context.Context, p []byte) (int, error)
	Close() error
}

// NewReaderSource adapts an io.Reader into a Source. The context is checked
// before each read; readers that block cannot be interrupted mid-read, so
// pair this with readers that respect deadlines when cancellation matters.
// Close closes r when it implements io.Closer.
func NewReaderSource(r io.Reader) Source {
	return &readerSource{r: r}
}

type readerSource struct {
	r io.Reader
}

func (s *readerSource) Read(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.r.Read(p)
}

func (s *readerSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// emptySource backs bodyless responses, such as HEAD results.
type emptySource struct{}

func (emptySource) Read(context.Context, []byte) (int, error) { return 0, io.EOF }
func (emptySource) Close() error                              { return nil }

var (
	_ Source = (*readerSource)(nil)
	_ Source = emptySource{}
)
