package core

import (
	"errors"
	"testing"
	"time"
)

// testTelemetryHook is a test implementation that records events.
type testTelemetryHook struct {
	startEvents []TransferStartEvent
	endEvents   []TransferEndEvent
}

func (h *testTelemetryHook) OnTransferStart(e TransferStartEvent) {
	h.startEvents = append(h.startEvents, e)
}

func (h *testTelemetryHook) OnTransferEnd(e TransferEndEvent) {
	h.endEvents = append(h.endEvents, e)
}

func TestTelemetryHookCanBeImplemented(t *testing.T) {
	// Verify test struct implements interface
	var hook TelemetryHook = &testTelemetryHook{}
	if hook == nil {
		t.Fatal("testTelemetryHook should implement TelemetryHook")
	}
}

func TestTransferStartEventFields(t *testing.T) {
	now := time.Now()
	event := TransferStartEvent{
		Method: "GET",
		URL:    "https://example.com/data",
		Start:  now,
	}

	if event.Method != "GET" {
		t.Errorf("Method = %v, want GET", event.Method)
	}
	if event.URL != "https://example.com/data" {
		t.Errorf("URL = %v, want https://example.com/data", event.URL)
	}
	if !event.Start.Equal(now) {
		t.Errorf("Start = %v, want %v", event.Start, now)
	}
}

func TestTransferEndEventFields(t *testing.T) {
	start := time.Now()
	end := start.Add(500 * time.Millisecond)
	testErr := errors.New("test error")

	event := TransferEndEvent{
		Method:    "GET",
		URL:       "https://example.com/data",
		Status:    503,
		RequestID: "req_123",
		Start:     start,
		End:       end,
		BytesRead: 2048,
		Err:       testErr,
	}

	if event.Method != "GET" {
		t.Errorf("Method = %v, want GET", event.Method)
	}
	if event.URL != "https://example.com/data" {
		t.Errorf("URL = %v, want https://example.com/data", event.URL)
	}
	if event.Status != 503 {
		t.Errorf("Status = %v, want 503", event.Status)
	}
	if event.RequestID != "req_123" {
		t.Errorf("RequestID = %v, want req_123", event.RequestID)
	}
	if !event.Start.Equal(start) {
		t.Errorf("Start = %v, want %v", event.Start, start)
	}
	if !event.End.Equal(end) {
		t.Errorf("End = %v, want %v", event.End, end)
	}
	if event.BytesRead != 2048 {
		t.Errorf("BytesRead = %v, want 2048", event.BytesRead)
	}
	if event.Err != testErr {
		t.Errorf("Err = %v, want %v", event.Err, testErr)
	}
}

func TestTransferEndEventDuration(t *testing.T) {
	start := time.Now()
	end := start.Add(500 * time.Millisecond)

	event := TransferEndEvent{
		Start: start,
		End:   end,
	}

	duration := event.Duration()
	if duration != 500*time.Millisecond {
		t.Errorf("Duration() = %v, want 500ms", duration)
	}
}

func TestTransferEndEventSuccessHasNilError(t *testing.T) {
	event := TransferEndEvent{
		Method:    "GET",
		URL:       "https://example.com/data",
		Status:    200,
		Start:     time.Now(),
		End:       time.Now(),
		BytesRead: 100,
		Err:       nil,
	}

	if event.Err != nil {
		t.Error("successful transfer should have nil Err")
	}
}

func TestNoopTelemetryHookImplementsInterface(t *testing.T) {
	var hook TelemetryHook = NoopTelemetryHook{}
	if hook == nil {
		t.Fatal("NoopTelemetryHook should implement TelemetryHook")
	}
}

func TestNoopTelemetryHookDoesNotPanic(t *testing.T) {
	hook := NoopTelemetryHook{}

	// Should not panic
	hook.OnTransferStart(TransferStartEvent{
		Method: "GET",
		URL:    "https://example.com/data",
		Start:  time.Now(),
	})

	hook.OnTransferEnd(TransferEndEvent{
		Method: "GET",
		URL:    "https://example.com/data",
		Start:  time.Now(),
		End:    time.Now(),
		Err:    errors.New("test"),
	})
}

func TestTelemetryHookReceivesEvents(t *testing.T) {
	hook := &testTelemetryHook{}

	startEvent := TransferStartEvent{
		Method: "GET",
		URL:    "https://example.com/data",
		Start:  time.Now(),
	}

	endEvent := TransferEndEvent{
		Method:    "GET",
		URL:       "https://example.com/data",
		Status:    200,
		Start:     startEvent.Start,
		End:       time.Now(),
		BytesRead: 100,
		Err:       nil,
	}

	hook.OnTransferStart(startEvent)
	hook.OnTransferEnd(endEvent)

	if len(hook.startEvents) != 1 {
		t.Errorf("expected 1 start event, got %d", len(hook.startEvents))
	}
	if len(hook.endEvents) != 1 {
		t.Errorf("expected 1 end event, got %d", len(hook.endEvents))
	}

	if hook.startEvents[0].URL != "https://example.com/data" {
		t.Error("start event should contain correct URL")
	}
	if hook.endEvents[0].BytesRead != 100 {
		t.Error("end event should contain correct byte count")
	}
}

// TestEventStructsHaveNoSecretFields verifies at compile time that
// event structs don't have fields for sensitive data.
// This is a documentation test - the actual enforcement is via struct design.
func TestEventStructsHaveNoSecretFields(t *testing.T) {
	// TransferStartEvent should only have safe fields
	_ = TransferStartEvent{
		Method: "GET",       // safe: HTTP method
		URL:    "https://x", // safe: endpoint identity
		Start:  time.Now(),  // safe: timestamp
	}

	// TransferEndEvent should only have safe fields
	_ = TransferEndEvent{
		Method:    "GET",       // safe: HTTP method
		URL:       "https://x", // safe: endpoint identity
		Status:    200,         // safe: status code
		RequestID: "req_1",     // safe: correlation identifier
		Start:     time.Now(),  // safe: timestamp
		End:       time.Now(),  // safe: timestamp
		BytesRead: 0,           // safe: byte count only
		Err:       nil,         // safe: error type (not content)
	}

	// If this test compiles, the structs don't have fields like:
	// - Token
	// - Headers
	// - BodyContent
	// etc.
}
