package core

import "time"

// TelemetryHook receives notifications about transfer lifecycle events.
// Implementations can use this for logging, metrics, tracing, etc.
//
// # Security Considerations
//
// Event types are designed to NEVER include sensitive data:
//   - Bearer tokens are NEVER included (stored separately as core.Secret)
//   - Body content is NEVER included
//   - Request and response headers are NEVER included (may carry auth)
//   - Only operational metadata is exposed (method, URL, status, timing,
//     byte counts)
//
// This design ensures that telemetry data can be safely:
//   - Logged to disk without risk of credential exposure
//   - Sent to external monitoring systems
//   - Aggregated for analytics
//
// If extending this interface, maintain these security properties. Never add
// fields that could contain tokens, headers, or body bytes.
type TelemetryHook interface {
	// OnTransferStart is called when a transfer begins.
	OnTransferStart(e TransferStartEvent)

	// OnTransferEnd is called when a transfer completes. For transfers that
	// hand out a body, completion means the body was closed; BytesRead then
	// carries the final count.
	OnTransferEnd(e TransferEndEvent)
}

// TransferStartEvent contains metadata about a starting transfer.
type TransferStartEvent struct {
	Method string    // HTTP method
	URL    string    // Endpoint being transferred from
	Start  time.Time // When the transfer started
}

// TransferEndEvent contains metadata about a completed transfer.
//
// The Err field carries the request-phase failure, if any; body-read
// failures belong to the body's own error reporting and are not duplicated
// here.
type TransferEndEvent struct {
	Method    string    // HTTP method
	URL       string    // Endpoint transferred from
	Status    int       // HTTP status, 0 when the request never completed
	RequestID string    // Request identifier, when assigned
	Start     time.Time // When the transfer started
	End       time.Time // When the transfer completed
	BytesRead int64     // Body bytes delivered to the consumer
	Err       error     // Error if the request phase failed, nil on success
}

// Duration returns the elapsed time for the transfer.
func (e TransferEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
// Use this as a default when no telemetry is configured.
type NoopTelemetryHook struct{}

// OnTransferStart does nothing.
func (NoopTelemetryHook) OnTransferStart(TransferStartEvent) {}

// OnTransferEnd does nothing.
func (NoopTelemetryHook) OnTransferEnd(TransferEndEvent) {}

// Compile-time check that NoopTelemetryHook implements TelemetryHook.
var _ TelemetryHook = NoopTelemetryHook{}
