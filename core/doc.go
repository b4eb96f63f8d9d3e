// Package core provides the Brook client and the streaming body types for
// consuming HTTP content with declared-length enforcement.
//
// Brook sits between a raw network byte stream and code consuming that
// stream as bytes, fixed-size chunks, or newline-delimited lines. The core
// package defines the fundamental abstractions; the transport package
// supplies the HTTP glue.
//
// # Client and Session
//
// The primary entry point is [Client], which wraps a [Session] and adds
// status mapping, telemetry, and request-phase retries:
//
//	session := transport.New(transport.WithReadTimeout(30 * time.Second))
//	client := core.NewClient(session,
//	    core.WithTelemetry(myTelemetryHook),
//	    core.WithRetryPolicy(core.DefaultRetryPolicy()),
//	)
//
// # Body
//
// [Body] is the streaming reader every successful GET hands back. It wraps
// one [Source] plus the length the transfer declared, counts every byte it
// delivers, and fails with *[IncompleteReadError] when the source ends on a
// different count:
//
//	resp, err := client.Get(ctx, url)
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
//	data, err := resp.Body.ReadAll(ctx)
//
// Bulk reads, single-pull reads, and buffer fills share one accounting path:
//
//	chunk, err := resp.Body.Read(ctx, 4096) // one source pull
//	n, err := resp.Body.ReadInto(ctx, buf)  // fill a caller buffer
//
// # Iteration
//
// A Body is itself a lazy sequence of 1024-byte chunks:
//
//	for resp.Body.Next(ctx) {
//	    process(resp.Body.Current())
//	}
//	if err := resp.Body.Err(); err != nil {
//	    return err
//	}
//
// [Body.Chunks] and [Body.Lines] expose the same read path as range-over
// iterators:
//
//	for line, err := range resp.Body.Lines(ctx, 0) {
//	    if err != nil {
//	        return err
//	    }
//	    handle(line)
//	}
//
// All views are single-pass and non-restartable; they advance the same
// underlying stream.
//
// # Error Handling
//
// The package defines sentinel errors for common failure modes:
//   - [ErrIncompleteBody]: body ended on the wrong byte count
//   - [ErrReadTimeout]: the source timed out mid-body
//   - [ErrNetwork]: the request never reached the endpoint
//   - [ErrUnauthorized], [ErrForbidden], [ErrNotFound], [ErrRateLimited],
//     [ErrServer], [ErrBadRequest]: mapped from HTTP statuses
//
// Use errors.Is to classify, or errors.As for the typed errors
// (*[TransferError], *[IncompleteReadError], *[ReadTimeoutError]):
//
//	var ire *core.IncompleteReadError
//	if errors.As(err, &ire) {
//	    log.Printf("short body: got %d of %d", ire.BytesRead, ire.DeclaredLength)
//	}
//
// Source timeouts are remapped to *[ReadTimeoutError] (os.IsTimeout reports
// true for it); context cancellation always passes through unchanged.
//
// # Waiters
//
// Named waiters poll an endpoint until a condition holds:
//
//	w, err := client.GetWaiter("endpoint-up", core.WithMaxAttempts(5))
//	if err != nil {
//	    return err
//	}
//	if err := w.Wait(ctx, url); err != nil { ... }
//
// Register custom conditions with [RegisterWaiter].
//
// # Telemetry
//
// Implement [TelemetryHook] to observe transfer lifecycle:
//
//	type MyTelemetry struct{}
//
//	func (t MyTelemetry) OnTransferStart(e core.TransferStartEvent) {
//	    log.Printf("GET %s", e.URL)
//	}
//
//	func (t MyTelemetry) OnTransferEnd(e core.TransferEndEvent) {
//	    log.Printf("done in %v, %d bytes", e.Duration(), e.BytesRead)
//	}
//
// # Retry Policy
//
// Request-phase failures retry with exponential backoff and jitter under the
// default policy; body-read failures never retry, because a partially
// consumed stream is not resumable. Configure with [WithRetryPolicy] and
// [NewRetryPolicy].
//
// # Thread Safety
//
// [Client] is safe for concurrent use across goroutines. [Body] is
// single-consumer: calls must be sequential, and no two reads may be in
// flight at once. Wrap it yourself if you need shared access.
package core
