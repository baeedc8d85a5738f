// Copyright 2025 SprintLoop Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"fmt"
)

// SessionStartError represents a failure to start a debug session.
// Use this when the adapter rejects a launch/attach configuration or the
// transport cannot be established.
type SessionStartError struct {
	// Config is the name of the launch configuration that failed
	Config string

	// Reason explains why the session could not start
	Reason string

	// Cause is the underlying error (transport dial failure, adapter rejection)
	Cause error
}

// Error implements the error interface.
func (e *SessionStartError) Error() string {
	if e.Config != "" {
		return fmt.Sprintf("failed to start session %q: %s", e.Config, e.Reason)
	}
	return fmt.Sprintf("failed to start session: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *SessionStartError) Unwrap() error {
	return e.Cause
}

// InvalidStateError represents a control command issued from a session state
// that forbids it (e.g. stepping while the debuggee is running).
// The session state is never altered by this error.
type InvalidStateError struct {
	// Op is the operation that was attempted (e.g. "stepOver")
	Op string

	// State is the session state the command was issued from
	State string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not valid in state %q", e.Op, e.State)
}

// EvaluationError represents a failed watch or expression evaluation.
// It is scoped to the failing expression and is surfaced as a per-expression
// error string, never as a session-level failure.
type EvaluationError struct {
	// Expression is the expression text that failed
	Expression string

	// Message is the adapter's error description
	Message string
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("failed to evaluate %q: %s", e.Expression, e.Message)
}

// TransportError represents an unreachable or crashed debug adapter.
// It is fatal to the session: the controller resets to inactive and clears
// all derived caches when it observes one.
type TransportError struct {
	// Op is the transport operation that failed (e.g. "stackTrace")
	Op string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("adapter transport failed during %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("adapter transport failed: %v", e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource (breakpoint, frame, watch) does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "breakpoint", "frame", "watch")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError represents user input validation failures.
// Use this for invalid breakpoint locations, malformed condition expressions,
// or constraint violations.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}
