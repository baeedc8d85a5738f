package dap

// SessionState represents the lifecycle state of a debug session.
type SessionState string

// Session states
const (
	// StateInactive means no session is running. The only state Start is
	// valid from.
	StateInactive SessionState = "inactive"

	// StateRunning means the debuggee is executing.
	StateRunning SessionState = "running"

	// StatePaused means the debuggee is suspended at a stop event.
	StatePaused SessionState = "paused"

	// StateStopped means the debuggee exited on its own. Distinct from a
	// user-initiated stop: it must be acknowledged before a new session
	// can start.
	StateStopped SessionState = "stopped"
)

// Valid states for validation
var validStates = map[SessionState]bool{
	StateInactive: true,
	StateRunning:  true,
	StatePaused:   true,
	StateStopped:  true,
}

// IsValid checks if a state is valid.
func (s SessionState) IsValid() bool {
	return validStates[s]
}

// CanResume returns true if continue/step commands are valid from this state.
func (s SessionState) CanResume() bool {
	return s == StatePaused
}

// CanPause returns true if a pause command is valid from this state.
func (s SessionState) CanPause() bool {
	return s == StateRunning
}

// Source identifies a source file reported by the adapter.
type Source struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// StackFrame is one frame of the call stack captured at a stop event.
// Frame ids are scoped to a single stop event and are not stable across
// resumes.
type StackFrame struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Source Source `json:"source"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// Scope is a named grouping of variables attached to a stack frame
// (e.g. "Locals", "Arguments", "Globals").
type Scope struct {
	Name               string `json:"name"`
	VariablesReference int    `json:"variablesReference"`
	NamedVariables     int    `json:"namedVariables,omitempty"`
	IndexedVariables   int    `json:"indexedVariables,omitempty"`

	// Expensive signals the resolver should not eagerly expand this scope.
	Expensive bool `json:"expensive,omitempty"`
}

// Variable is one node of the lazily-expanded variable tree.
// A VariablesReference of zero means the variable has no children.
type Variable struct {
	Name               string `json:"name"`
	Value              string `json:"value"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference"`
	NamedVariables     int    `json:"namedVariables,omitempty"`
	IndexedVariables   int    `json:"indexedVariables,omitempty"`

	// EvaluateName is an expression that re-evaluates to this variable,
	// usable as a watch expression.
	EvaluateName string `json:"evaluateName,omitempty"`
}

// EvaluateResult is the adapter's answer to an expression evaluation.
type EvaluateResult struct {
	Result             string `json:"result"`
	Type               string `json:"type,omitempty"`
	VariablesReference int    `json:"variablesReference"`
}

// Breakpoint is a source breakpoint owned by the breakpoint registry.
type Breakpoint struct {
	ID           int    `json:"id"`
	File         string `json:"file"`
	Line         int    `json:"line"`
	Column       int    `json:"column,omitempty"`
	Enabled      bool   `json:"enabled"`
	Condition    string `json:"condition,omitempty"`
	HitCondition string `json:"hitCondition,omitempty"`

	// LogMessage, when set, makes this a logpoint: the adapter logs the
	// message instead of suspending execution.
	LogMessage string `json:"logMessage,omitempty"`

	// Verified reports whether the adapter confirmed it can bind to this
	// location. Message carries the adapter's explanation when it cannot.
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
}

// IsLogpoint returns true if the breakpoint logs instead of suspending.
func (b *Breakpoint) IsLogpoint() bool {
	return b.LogMessage != ""
}

// WatchState describes the availability of a watch expression's result.
type WatchState string

const (
	// WatchUnavailable means there is no paused frame to evaluate against.
	WatchUnavailable WatchState = "unavailable"

	// WatchOK means Value and Type hold the latest evaluation result.
	WatchOK WatchState = "ok"

	// WatchError means Err holds the adapter's evaluation error.
	WatchError WatchState = "error"
)

// WatchExpression is a user-entered expression re-evaluated on every stop
// event.
type WatchExpression struct {
	ID         int        `json:"id"`
	Expression string     `json:"expression"`
	Value      string     `json:"value,omitempty"`
	Type       string     `json:"type,omitempty"`
	Err        string     `json:"error,omitempty"`
	State      WatchState `json:"state"`

	// VariablesReference allows expanding structured results; subject to
	// the same generation scoping as any other handle.
	VariablesReference int `json:"variablesReference,omitempty"`
}

// LaunchConfig describes how to start or attach to a debuggee.
type LaunchConfig struct {
	// Name identifies the configuration (e.g. "Launch API server").
	Name string `yaml:"name" json:"name"`

	// Request is "launch" or "attach".
	Request string `yaml:"request" json:"request"`

	// Adapter is the debug adapter address (host:port).
	Adapter string `yaml:"adapter" json:"adapter"`

	// Program is the entry point to launch.
	Program string `yaml:"program,omitempty" json:"program,omitempty"`

	Args []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Cwd  string            `yaml:"cwd,omitempty" json:"cwd,omitempty"`
	Env  map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// StopOnEntry pauses the debuggee at its entry point before the first
	// instruction runs.
	StopOnEntry bool `yaml:"stopOnEntry,omitempty" json:"stopOnEntry,omitempty"`
}
