package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sprintloop/debugcore/pkg/dap"
)

// fakeTransport is a scripted adapter. Tests preload frames, variables, and
// evaluation behavior, then push events through emit helpers.
type fakeTransport struct {
	mu     sync.Mutex
	events chan dap.Event
	closed bool

	frames    []dap.StackFrame
	variables map[int][]dap.Variable
	scopes    map[int][]dap.Scope
	evalFn    func(expression string, frameID int) (dap.EvaluateResult, error)
	setBpsFn  func(file string, bps []dap.Breakpoint) ([]dap.Breakpoint, error)
	launchErr error

	launchCalls    int
	terminateCalls int
	continueCalls  int
	pauseCalls     int
	nextCalls      int
	stepInCalls    int
	stepOutCalls   int
	variablesCalls int
	scopesCalls    int

	setBreakpoints map[string][]dap.Breakpoint
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events:         make(chan dap.Event, 16),
		variables:      make(map[int][]dap.Variable),
		scopes:         make(map[int][]dap.Scope),
		setBreakpoints: make(map[string][]dap.Breakpoint),
	}
}

func (f *fakeTransport) Launch(ctx context.Context, cfg dap.LaunchConfig) error {
	f.mu.Lock()
	f.launchCalls++
	err := f.launchErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if cfg.StopOnEntry {
		f.emitStopped("entry", 1)
	}
	return nil
}

func (f *fakeTransport) Terminate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminateCalls++
	return nil
}

func (f *fakeTransport) Continue(ctx context.Context, threadID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.continueCalls++
	return nil
}

func (f *fakeTransport) Pause(ctx context.Context, threadID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauseCalls++
	return nil
}

func (f *fakeTransport) Next(ctx context.Context, threadID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCalls++
	return nil
}

func (f *fakeTransport) StepIn(ctx context.Context, threadID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stepInCalls++
	return nil
}

func (f *fakeTransport) StepOut(ctx context.Context, threadID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stepOutCalls++
	return nil
}

func (f *fakeTransport) StackTrace(ctx context.Context, threadID int) ([]dap.StackFrame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dap.StackFrame, len(f.frames))
	copy(out, f.frames)
	return out, nil
}

func (f *fakeTransport) Scopes(ctx context.Context, frameID int) ([]dap.Scope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scopesCalls++
	scopes, ok := f.scopes[frameID]
	if !ok {
		return nil, fmt.Errorf("unknown frame %d", frameID)
	}
	out := make([]dap.Scope, len(scopes))
	copy(out, scopes)
	return out, nil
}

func (f *fakeTransport) Variables(ctx context.Context, variablesReference int) ([]dap.Variable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variablesCalls++
	vars, ok := f.variables[variablesReference]
	if !ok {
		return nil, fmt.Errorf("unknown variables reference %d", variablesReference)
	}
	out := make([]dap.Variable, len(vars))
	copy(out, vars)
	return out, nil
}

func (f *fakeTransport) SetVariable(ctx context.Context, variablesReference int, name, value string) (dap.Variable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vars, ok := f.variables[variablesReference]
	if !ok {
		return dap.Variable{}, fmt.Errorf("unknown variables reference %d", variablesReference)
	}
	for i := range vars {
		if vars[i].Name == name {
			vars[i].Value = value
			f.variables[variablesReference] = vars
			return vars[i], nil
		}
	}
	return dap.Variable{}, fmt.Errorf("no variable named %q", name)
}

func (f *fakeTransport) Evaluate(ctx context.Context, expression string, frameID int) (dap.EvaluateResult, error) {
	f.mu.Lock()
	fn := f.evalFn
	f.mu.Unlock()
	if fn == nil {
		return dap.EvaluateResult{Result: "<nil>"}, nil
	}
	return fn(expression, frameID)
}

func (f *fakeTransport) SetBreakpoints(ctx context.Context, file string, breakpoints []dap.Breakpoint) ([]dap.Breakpoint, error) {
	f.mu.Lock()
	fn := f.setBpsFn
	sent := make([]dap.Breakpoint, len(breakpoints))
	copy(sent, breakpoints)
	f.setBreakpoints[file] = sent
	f.mu.Unlock()

	if fn != nil {
		return fn(file, breakpoints)
	}
	results := make([]dap.Breakpoint, len(breakpoints))
	for i, bp := range breakpoints {
		bp.Verified = true
		results[i] = bp
	}
	return results, nil
}

func (f *fakeTransport) Events() <-chan dap.Event {
	return f.events
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *fakeTransport) setFrames(frames ...dap.StackFrame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = frames
}

func (f *fakeTransport) setVariables(ref int, vars ...dap.Variable) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variables[ref] = vars
}

func (f *fakeTransport) variablesCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.variablesCalls
}

func (f *fakeTransport) sentBreakpoints(file string) []dap.Breakpoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setBreakpoints[file]
}

func (f *fakeTransport) emitStopped(reason string, threadID int) {
	f.events <- dap.Event{Type: dap.EventStopped, Reason: reason, ThreadID: threadID}
}

func (f *fakeTransport) emitTerminated(exitCode int) {
	f.events <- dap.Event{Type: dap.EventTerminated, ExitCode: exitCode}
}

func (f *fakeTransport) emitOutput(category, output string) {
	f.events <- dap.Event{Type: dap.EventOutput, Category: category, Output: output}
}
