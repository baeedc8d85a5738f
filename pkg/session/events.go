package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sprintloop/debugcore/pkg/dap"
)

// EventType represents the type of engine event.
type EventType string

const (
	// EventStateChanged is emitted when the session changes state.
	EventStateChanged EventType = "state_changed"

	// EventStopped is emitted when the debuggee suspends.
	EventStopped EventType = "stopped"

	// EventContinued is emitted when the debuggee resumes.
	EventContinued EventType = "continued"

	// EventTerminated is emitted when the session ends.
	EventTerminated EventType = "terminated"

	// EventStackUpdated is emitted when a fresh call stack is installed.
	EventStackUpdated EventType = "stack_updated"

	// EventWatchesUpdated is emitted after watches are re-evaluated.
	EventWatchesUpdated EventType = "watches_updated"

	// EventOutput is emitted for debuggee or adapter output.
	EventOutput EventType = "output"

	// EventBreakpointValidated is emitted when the adapter reports a
	// breakpoint verification result.
	EventBreakpointValidated EventType = "breakpoint_validated"
)

// Event represents an engine event.
type Event struct {
	Type      EventType              `json:"type"`
	SessionID string                 `json:"session_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// EventListener is a function that handles engine events.
type EventListener func(ctx context.Context, event *Event) error

// EventEmitter manages event listeners and dispatches events.
type EventEmitter struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventListener
}

// NewEventEmitter creates a new event emitter.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (e *EventEmitter) On(eventType EventType, listener EventListener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// Off removes all listeners for the event type.
func (e *EventEmitter) Off(eventType EventType) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.listeners, eventType)
}

// Emit dispatches an event to all registered listeners.
// Listeners are called synchronously, in registration order; a failing
// listener does not prevent the others from running.
func (e *EventEmitter) Emit(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	e.mu.RLock()
	listeners := make([]EventListener, len(e.listeners[event.Type]))
	copy(listeners, e.listeners[event.Type])
	e.mu.RUnlock()

	var lastError error
	for _, listener := range listeners {
		if err := listener(ctx, event); err != nil {
			lastError = err
		}
	}

	return lastError
}

// EmitStateChanged emits a state change event.
func (e *EventEmitter) EmitStateChanged(ctx context.Context, sessionID string, from, to dap.SessionState, reason string) error {
	return e.Emit(ctx, &Event{
		Type:      EventStateChanged,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"from_state": from,
			"to_state":   to,
			"reason":     reason,
		},
	})
}

// EmitStopped emits a stopped event.
func (e *EventEmitter) EmitStopped(ctx context.Context, sessionID, reason string, threadID int) error {
	return e.Emit(ctx, &Event{
		Type:      EventStopped,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"reason":    reason,
			"thread_id": threadID,
		},
	})
}

// EmitStackUpdated emits a stack update event with the new frame count.
func (e *EventEmitter) EmitStackUpdated(ctx context.Context, sessionID string, frames int) error {
	return e.Emit(ctx, &Event{
		Type:      EventStackUpdated,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"frames": frames,
		},
	})
}

// EmitOutput emits a debuggee output event.
func (e *EventEmitter) EmitOutput(ctx context.Context, sessionID, category, output string) error {
	return e.Emit(ctx, &Event{
		Type:      EventOutput,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"category": category,
			"output":   output,
		},
	})
}

// ListenerCount returns the number of listeners for a given event type.
func (e *EventEmitter) ListenerCount(eventType EventType) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.listeners[eventType])
}

// RemoveAllListeners removes all listeners for all event types.
func (e *EventEmitter) RemoveAllListeners() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listeners = make(map[EventType][]EventListener)
}
