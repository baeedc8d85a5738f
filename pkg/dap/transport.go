package dap

import (
	"context"
	"time"
)

// EventType represents the type of adapter event.
type EventType string

const (
	// EventStopped indicates the debuggee has suspended (breakpoint hit,
	// step completed, pause requested, or entry stop).
	EventStopped EventType = "stopped"

	// EventContinued indicates the debuggee resumed without a preceding
	// continue request from this client.
	EventContinued EventType = "continued"

	// EventTerminated indicates the debug session has ended.
	EventTerminated EventType = "terminated"

	// EventOutput carries debuggee or adapter output.
	EventOutput EventType = "output"

	// EventBreakpoint carries a breakpoint verification update.
	EventBreakpoint EventType = "breakpoint"
)

// Event is a notification pushed by the adapter out-of-band with request
// acknowledgements.
type Event struct {
	// Type is the type of event.
	Type EventType

	// Reason describes why a stop occurred ("breakpoint", "step", "pause",
	// "entry", "exception").
	Reason string

	// ThreadID is the thread the event applies to (stopped events).
	ThreadID int

	// ExitCode is the debuggee exit code (terminated events, when known).
	ExitCode int

	// Category and Output carry debuggee output (output events).
	Category string
	Output   string

	// Breakpoint carries the adapter's view of a breakpoint
	// (breakpoint verification events).
	Breakpoint *Breakpoint

	// Timestamp is when the event was received.
	Timestamp time.Time
}

// Transport is the abstract debug adapter the engine talks to. Implementations
// wrap a concrete wire protocol (the client subpackage speaks DAP over TCP);
// tests substitute scripted fakes.
//
// Control requests return once the adapter acknowledges them. Completion of a
// resume/step is implied by a later stopped event on Events, never by the ack
// itself.
type Transport interface {
	// Launch starts or attaches to the debuggee described by cfg.
	Launch(ctx context.Context, cfg LaunchConfig) error

	// Terminate asks the adapter to end the session.
	Terminate(ctx context.Context) error

	// Continue resumes the given thread.
	Continue(ctx context.Context, threadID int) error

	// Pause suspends the given thread.
	Pause(ctx context.Context, threadID int) error

	// Next steps over the current line.
	Next(ctx context.Context, threadID int) error

	// StepIn steps into the call at the current line.
	StepIn(ctx context.Context, threadID int) error

	// StepOut runs until the current frame returns.
	StepOut(ctx context.Context, threadID int) error

	// StackTrace fetches the ordered call stack for a thread. Frame 0 is
	// the innermost frame.
	StackTrace(ctx context.Context, threadID int) ([]StackFrame, error)

	// Scopes fetches the variable scopes of a frame.
	Scopes(ctx context.Context, frameID int) ([]Scope, error)

	// Variables fetches the ordered children of a variable reference.
	Variables(ctx context.Context, variablesReference int) ([]Variable, error)

	// SetVariable mutates a named child of a variable reference and
	// returns the adapter's view of the new value.
	SetVariable(ctx context.Context, variablesReference int, name, value string) (Variable, error)

	// Evaluate evaluates an expression in the context of a frame.
	// A frameID of zero evaluates in the global context.
	Evaluate(ctx context.Context, expression string, frameID int) (EvaluateResult, error)

	// SetBreakpoints replaces all breakpoints for a source file and
	// returns the adapter's verification results in request order.
	SetBreakpoints(ctx context.Context, file string, breakpoints []Breakpoint) ([]Breakpoint, error)

	// Events returns the adapter's event stream. The channel is closed
	// when the transport shuts down.
	Events() <-chan Event

	// Close tears down the connection to the adapter.
	Close() error
}
