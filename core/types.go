// Package core provides the Brook client and types.
package core

import "net/http"

// Request describes one transfer for a Session to perform.
type Request struct {
	Method string
	URL    string
	Header http.Header
}

// RawResponse is what a Session hands back before body wrapping: response
// metadata plus the raw byte source. ContentLength is -1 when the transport
// did not learn a length.
type RawResponse struct {
	Status        int
	Header        http.Header
	ContentLength int64
	RequestID     string
	Source        Source
}

// Response is the caller-facing result of a transfer. Body enforces the
// declared length as it is consumed; ContentLength preserves what the
// transport reported (-1 when unknown). The caller owns Body and must close
// it.
type Response struct {
	Status        int
	Header        http.Header
	ContentLength int64
	RequestID     string
	Body          *Body
}

// declaredLength converts a transport-reported content length to the body's
// declared length. Unknown lengths (negative) disable checking.
func declaredLength(contentLength int64) int64 {
	if contentLength < 0 {
		return 0
	}
	return contentLength
}
