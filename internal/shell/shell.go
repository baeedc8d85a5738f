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

// Package shell provides the interactive debugcore command prompt.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sprintloop/debugcore/pkg/breakpoints"
	"github.com/sprintloop/debugcore/pkg/dap"
	"github.com/sprintloop/debugcore/pkg/session"
)

// Shell is a line-oriented debugging prompt on top of the session engine.
type Shell struct {
	controller *session.Controller
	registry   *breakpoints.Registry
	input      io.Reader
	output     io.Writer
	quit       chan struct{}
}

// NewShell creates a shell reading from stdin and writing to stdout.
func NewShell(controller *session.Controller, registry *breakpoints.Registry) *Shell {
	return &Shell{
		controller: controller,
		registry:   registry,
		input:      os.Stdin,
		output:     os.Stdout,
		quit:       make(chan struct{}),
	}
}

// Run starts the prompt loop. It returns when the user quits, input ends,
// or the context is cancelled. Ctrl+C pauses a running debuggee instead of
// killing the shell.
func (s *Shell) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	s.subscribe(ctx)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-s.quit:
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	fmt.Fprintln(s.output, `Type "help" for commands.`)
	for {
		fmt.Fprint(s.output, "(dbg) ")

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.quit:
			return nil

		case <-sigCh:
			if s.controller.State() == dap.StateRunning {
				fmt.Fprintln(s.output, "\npausing...")
				if err := s.controller.Pause(ctx); err != nil {
					fmt.Fprintf(s.output, "error: %v\n", err)
				}
			} else {
				fmt.Fprintln(s.output, "\ntype \"quit\" to exit")
			}

		case err := <-scanErr:
			if err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			return nil

		case line := <-lines:
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if done := s.dispatch(ctx, line); done {
				return nil
			}
		}
	}
}

// subscribe prints engine events as they happen.
func (s *Shell) subscribe(ctx context.Context) {
	emitter := s.controller.Emitter()

	emitter.On(session.EventStopped, func(ctx context.Context, ev *session.Event) error {
		reason, _ := ev.Data["reason"].(string)
		fmt.Fprintf(s.output, "\nstopped (%s)\n", reason)
		if frame, ok := s.controller.CurrentFrame(); ok {
			fmt.Fprintf(s.output, "  at %s %s:%d\n", frame.Name, frame.Source.Path, frame.Line)
		}
		return nil
	})

	emitter.On(session.EventTerminated, func(ctx context.Context, ev *session.Event) error {
		if code, ok := ev.Data["exit_code"].(int); ok {
			fmt.Fprintf(s.output, "\nprogram exited (code %d)\n", code)
		} else {
			fmt.Fprintln(s.output, "\nsession ended")
		}
		return nil
	})

	emitter.On(session.EventOutput, func(ctx context.Context, ev *session.Event) error {
		output, _ := ev.Data["output"].(string)
		fmt.Fprint(s.output, output)
		return nil
	})
}

// dispatch runs one command line. Returns true when the shell should exit.
func (s *Shell) dispatch(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "c", "continue":
		err = s.controller.Continue(ctx)

	case "n", "next":
		err = s.controller.StepOver(ctx)

	case "s", "step":
		err = s.controller.StepInto(ctx)

	case "o", "out":
		err = s.controller.StepOut(ctx)

	case "pause":
		err = s.controller.Pause(ctx)

	case "r", "restart":
		err = s.controller.Restart(ctx)

	case "bt", "stack":
		s.printStack()

	case "f", "frame":
		err = s.selectFrame(ctx, args)

	case "b", "break":
		err = s.toggleBreakpoint(ctx, args)

	case "bp", "breakpoints":
		s.printBreakpoints()

	case "d", "delete":
		err = s.deleteBreakpoint(ctx, args)

	case "w", "watch":
		err = s.addWatch(ctx, args)

	case "unwatch":
		err = s.removeWatch(args)

	case "watches":
		s.printWatches()

	case "p", "print":
		err = s.evaluate(ctx, args)

	case "vars", "locals":
		err = s.printVariables(ctx)

	case "state":
		fmt.Fprintf(s.output, "session %s\n", s.controller.State())

	case "h", "help", "?":
		s.printHelp()

	case "q", "quit", "exit":
		if err := s.controller.Stop(ctx); err != nil {
			fmt.Fprintf(s.output, "error: %v\n", err)
		}
		close(s.quit)
		return true

	default:
		err = fmt.Errorf("unknown command %q (type 'help' for commands)", cmd)
	}

	if err != nil {
		fmt.Fprintf(s.output, "error: %v\n", err)
	}
	return false
}

func (s *Shell) printStack() {
	frames := s.controller.CallStack()
	if len(frames) == 0 {
		fmt.Fprintln(s.output, "no stack (debuggee not paused)")
		return
	}
	current, _ := s.controller.CurrentFrame()
	for i, f := range frames {
		marker := " "
		if f.ID == current.ID {
			marker = "*"
		}
		fmt.Fprintf(s.output, "%s %2d  [%d] %s  %s:%d\n", marker, i, f.ID, f.Name, f.Source.Path, f.Line)
	}
}

func (s *Shell) selectFrame(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: frame <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("frame id must be a number")
	}
	if err := s.controller.SetCurrentFrame(ctx, id); err != nil {
		return err
	}
	frame, _ := s.controller.CurrentFrame()
	fmt.Fprintf(s.output, "frame [%d] %s  %s:%d\n", frame.ID, frame.Name, frame.Source.Path, frame.Line)
	return nil
}

// toggleBreakpoint adds or removes the breakpoint at file:line.
func (s *Shell) toggleBreakpoint(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <file>:<line> [condition]")
	}
	file, line, err := parseLocation(args[0])
	if err != nil {
		return err
	}

	if len(args) > 1 {
		condition := strings.Join(args[1:], " ")
		bp, err := s.registry.Add(ctx, file, line, &breakpoints.Options{Condition: condition})
		if err != nil {
			return err
		}
		fmt.Fprintf(s.output, "breakpoint %d set at %s:%d when %s\n", bp.ID, bp.File, bp.Line, condition)
		return nil
	}

	bp, added, err := s.registry.Toggle(ctx, file, line)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(s.output, "breakpoint %d set at %s:%d\n", bp.ID, bp.File, bp.Line)
	} else {
		fmt.Fprintf(s.output, "breakpoint %d removed\n", bp.ID)
	}
	return nil
}

func (s *Shell) printBreakpoints() {
	bps := s.registry.All()
	if len(bps) == 0 {
		fmt.Fprintln(s.output, "no breakpoints")
		return
	}
	for _, bp := range bps {
		state := "enabled"
		if !bp.Enabled {
			state = "disabled"
		}
		verified := ""
		if !bp.Verified {
			verified = "  (unverified"
			if bp.Message != "" {
				verified += ": " + bp.Message
			}
			verified += ")"
		}
		condition := ""
		if bp.Condition != "" {
			condition = "  when " + bp.Condition
		}
		fmt.Fprintf(s.output, "%3d  %s:%d  %s%s%s\n", bp.ID, bp.File, bp.Line, state, condition, verified)
	}
}

func (s *Shell) deleteBreakpoint(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("breakpoint id must be a number")
	}
	if err := s.registry.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(s.output, "breakpoint %d removed\n", id)
	return nil
}

func (s *Shell) addWatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <expression>")
	}
	watch, err := s.controller.AddWatch(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.output, "watch %d: %s\n", watch.ID, formatWatch(watch))
	return nil
}

func (s *Shell) removeWatch(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: unwatch <id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("watch id must be a number")
	}
	return s.controller.RemoveWatch(id)
}

func (s *Shell) printWatches() {
	watches := s.controller.Watches()
	if len(watches) == 0 {
		fmt.Fprintln(s.output, "no watches")
		return
	}
	for _, w := range watches {
		fmt.Fprintf(s.output, "%3d  %s = %s\n", w.ID, w.Expression, formatWatch(w))
	}
}

func (s *Shell) evaluate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}
	result, err := s.controller.Evaluate(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if result.Type != "" {
		fmt.Fprintf(s.output, "%s (%s)\n", result.Result, result.Type)
	} else {
		fmt.Fprintln(s.output, result.Result)
	}
	return nil
}

// printVariables lists the scopes of the selected frame with their
// top-level variables.
func (s *Shell) printVariables(ctx context.Context) error {
	frame, ok := s.controller.CurrentFrame()
	if !ok {
		return fmt.Errorf("no frame selected (debuggee not paused)")
	}
	scopes, err := s.controller.Scopes(ctx, frame.ID)
	if err != nil {
		return err
	}
	for _, scope := range scopes {
		fmt.Fprintf(s.output, "%s:\n", scope.Name)
		if scope.Expensive {
			fmt.Fprintln(s.output, "  (skipped, expensive scope)")
			continue
		}
		vars, err := s.controller.Variables(ctx, scope.VariablesReference)
		if err != nil {
			return err
		}
		for _, v := range vars {
			expand := ""
			if v.VariablesReference != 0 {
				expand = " ..."
			}
			fmt.Fprintf(s.output, "  %s = %s%s\n", v.Name, v.Value, expand)
		}
	}
	return nil
}

func (s *Shell) printHelp() {
	help := `
Commands:
  continue, c          resume execution
  next, n              step over the current line
  step, s              step into the call at the current line
  out, o               run until the current frame returns
  pause                suspend a running debuggee
  restart, r           stop and relaunch with the same configuration
  stack, bt            print the call stack
  frame, f <id>        select a stack frame
  break, b <file>:<line> [cond]
                       toggle a breakpoint (with condition: always add)
  breakpoints, bp      list breakpoints
  delete, d <id>       remove a breakpoint
  watch, w <expr>      watch an expression
  unwatch <id>         remove a watch
  watches              list watches with current values
  print, p <expr>      evaluate an expression in the selected frame
  vars, locals         list variables of the selected frame
  state                print the session state
  help, h, ?           show this help
  quit, q              stop the session and exit
`
	fmt.Fprintln(s.output, help)
}

// parseLocation splits "file:line". Windows drive letters are not a concern
// on the adapters this ships with, so the last colon wins.
func parseLocation(loc string) (string, int, error) {
	idx := strings.LastIndex(loc, ":")
	if idx <= 0 || idx == len(loc)-1 {
		return "", 0, fmt.Errorf("location must be <file>:<line>")
	}
	line, err := strconv.Atoi(loc[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("line must be a number in %q", loc)
	}
	return loc[:idx], line, nil
}

func formatWatch(w dap.WatchExpression) string {
	switch w.State {
	case dap.WatchOK:
		if w.Type != "" {
			return fmt.Sprintf("%s (%s)", w.Value, w.Type)
		}
		return w.Value
	case dap.WatchError:
		return "<error: " + w.Err + ">"
	default:
		return "<unavailable>"
	}
}
