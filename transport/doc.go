// Package transport implements the HTTP session that backs brook clients.
//
// A [Session] turns core requests into net/http calls, stamps each request
// with a generated X-Request-Id, and hands the response body back as a
// [core.Source] that honors the configured per-read timeout:
//
//	session := transport.New(
//	    transport.WithReadTimeout(30*time.Second),
//	    transport.WithBearerToken(token),
//	)
//	client := core.NewClient(session)
//
// Sessions are safe for concurrent use. The body sources they produce are
// not; each belongs to the single response that carries it.
package transport
