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

package shell

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintloop/debugcore/pkg/breakpoints"
	"github.com/sprintloop/debugcore/pkg/dap"
	"github.com/sprintloop/debugcore/pkg/session"
)

// stubTransport serves a single paused session with one frame and a couple
// of locals.
type stubTransport struct {
	events    chan dap.Event
	closeOnce sync.Once
}

func newStubTransport() *stubTransport {
	return &stubTransport{events: make(chan dap.Event, 8)}
}

func (s *stubTransport) Launch(ctx context.Context, cfg dap.LaunchConfig) error {
	if cfg.StopOnEntry {
		s.events <- dap.Event{Type: dap.EventStopped, Reason: "entry", ThreadID: 1}
	}
	return nil
}

func (s *stubTransport) Terminate(ctx context.Context) error               { return nil }
func (s *stubTransport) Continue(ctx context.Context, threadID int) error  { return nil }
func (s *stubTransport) Pause(ctx context.Context, threadID int) error     { return nil }
func (s *stubTransport) Next(ctx context.Context, threadID int) error      { return nil }
func (s *stubTransport) StepIn(ctx context.Context, threadID int) error    { return nil }
func (s *stubTransport) StepOut(ctx context.Context, threadID int) error   { return nil }

func (s *stubTransport) StackTrace(ctx context.Context, threadID int) ([]dap.StackFrame, error) {
	return []dap.StackFrame{
		{ID: 1, Name: "main.compute", Source: dap.Source{Path: "/src/main.go"}, Line: 12},
	}, nil
}

func (s *stubTransport) Scopes(ctx context.Context, frameID int) ([]dap.Scope, error) {
	return []dap.Scope{{Name: "Locals", VariablesReference: 100}}, nil
}

func (s *stubTransport) Variables(ctx context.Context, ref int) ([]dap.Variable, error) {
	return []dap.Variable{
		{Name: "total", Value: "14", Type: "int"},
		{Name: "items", Value: "[]string len: 2", VariablesReference: 101},
	}, nil
}

func (s *stubTransport) SetVariable(ctx context.Context, ref int, name, value string) (dap.Variable, error) {
	return dap.Variable{Name: name, Value: value}, nil
}

func (s *stubTransport) Evaluate(ctx context.Context, expression string, frameID int) (dap.EvaluateResult, error) {
	return dap.EvaluateResult{Result: "14", Type: "int"}, nil
}

func (s *stubTransport) SetBreakpoints(ctx context.Context, file string, bps []dap.Breakpoint) ([]dap.Breakpoint, error) {
	out := make([]dap.Breakpoint, len(bps))
	for i, bp := range bps {
		bp.Verified = true
		out[i] = bp
	}
	return out, nil
}

func (s *stubTransport) Events() <-chan dap.Event { return s.events }

func (s *stubTransport) Close() error {
	s.closeOnce.Do(func() { close(s.events) })
	return nil
}

func newTestShell(t *testing.T) (*Shell, *session.Controller, *bytes.Buffer) {
	t.Helper()
	dial := func(ctx context.Context, cfg dap.LaunchConfig) (dap.Transport, error) {
		return newStubTransport(), nil
	}
	registry := breakpoints.NewRegistry(nil, nil)
	controller := session.NewController(dial, registry, nil)
	t.Cleanup(func() { controller.Stop(context.Background()) })

	out := &bytes.Buffer{}
	sh := NewShell(controller, registry)
	sh.output = out
	return sh, controller, out
}

func startPaused(t *testing.T, controller *session.Controller) {
	t.Helper()
	err := controller.Start(context.Background(), dap.LaunchConfig{
		Name:        "test",
		Request:     "launch",
		Adapter:     "127.0.0.1:0",
		Program:     "./main",
		StopOnEntry: true,
	})
	require.NoError(t, err)
	require.Equal(t, dap.StatePaused, controller.State())
}

func TestShellBreakpointCommands(t *testing.T) {
	sh, _, out := newTestShell(t)
	ctx := context.Background()

	sh.dispatch(ctx, "break /src/main.go:12")
	assert.Contains(t, out.String(), "breakpoint 1 set at /src/main.go:12")

	out.Reset()
	sh.dispatch(ctx, "bp")
	assert.Contains(t, out.String(), "/src/main.go:12")
	assert.Contains(t, out.String(), "enabled")

	// Toggling the same location removes it.
	out.Reset()
	sh.dispatch(ctx, "b /src/main.go:12")
	assert.Contains(t, out.String(), "breakpoint 1 removed")

	out.Reset()
	sh.dispatch(ctx, "bp")
	assert.Contains(t, out.String(), "no breakpoints")
}

func TestShellConditionalBreakpoint(t *testing.T) {
	sh, _, out := newTestShell(t)

	sh.dispatch(context.Background(), "break /src/main.go:20 count > 5")
	assert.Contains(t, out.String(), "when count > 5")
}

func TestShellBadLocations(t *testing.T) {
	sh, _, out := newTestShell(t)
	ctx := context.Background()

	sh.dispatch(ctx, "break main.go")
	assert.Contains(t, out.String(), "location must be <file>:<line>")

	out.Reset()
	sh.dispatch(ctx, "break main.go:abc")
	assert.Contains(t, out.String(), "line must be a number")
}

func TestShellControlCommandsRequireSession(t *testing.T) {
	sh, _, out := newTestShell(t)
	ctx := context.Background()

	for _, cmd := range []string{"continue", "next", "step", "out", "pause", "restart"} {
		out.Reset()
		sh.dispatch(ctx, cmd)
		assert.Contains(t, out.String(), "error:", "command %q should fail without a session", cmd)
	}
}

func TestShellStackAndFrame(t *testing.T) {
	sh, controller, out := newTestShell(t)
	startPaused(t, controller)
	ctx := context.Background()

	sh.dispatch(ctx, "bt")
	assert.Contains(t, out.String(), "main.compute")
	assert.Contains(t, out.String(), "/src/main.go:12")
	assert.Contains(t, out.String(), "*", "current frame is marked")

	out.Reset()
	sh.dispatch(ctx, "frame 1")
	assert.Contains(t, out.String(), "frame [1] main.compute")

	out.Reset()
	sh.dispatch(ctx, "frame 42")
	assert.Contains(t, out.String(), "error:")
}

func TestShellPrintAndVars(t *testing.T) {
	sh, controller, out := newTestShell(t)
	startPaused(t, controller)
	ctx := context.Background()

	sh.dispatch(ctx, "print total")
	assert.Contains(t, out.String(), "14 (int)")

	out.Reset()
	sh.dispatch(ctx, "vars")
	assert.Contains(t, out.String(), "Locals:")
	assert.Contains(t, out.String(), "total = 14")
	assert.Contains(t, out.String(), "items = []string len: 2 ...")
}

func TestShellWatchCommands(t *testing.T) {
	sh, controller, out := newTestShell(t)
	startPaused(t, controller)
	ctx := context.Background()

	sh.dispatch(ctx, "watch total")
	assert.Contains(t, out.String(), "watch 1: 14 (int)")

	out.Reset()
	sh.dispatch(ctx, "watches")
	assert.Contains(t, out.String(), "total = 14 (int)")

	out.Reset()
	sh.dispatch(ctx, "unwatch 1")
	sh.dispatch(ctx, "watches")
	assert.Contains(t, out.String(), "no watches")
}

func TestShellUnknownCommand(t *testing.T) {
	sh, _, out := newTestShell(t)

	sh.dispatch(context.Background(), "frobnicate")
	assert.Contains(t, out.String(), `unknown command "frobnicate"`)
}

func TestShellQuitStopsSession(t *testing.T) {
	sh, controller, _ := newTestShell(t)
	startPaused(t, controller)

	done := sh.dispatch(context.Background(), "quit")
	assert.True(t, done)
	assert.Equal(t, dap.StateInactive, controller.State())
}

func TestShellRunQuits(t *testing.T) {
	sh, _, out := newTestShell(t)
	sh.input = strings.NewReader("state\nquit\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, sh.Run(ctx))
	assert.Contains(t, out.String(), "session inactive")
}
