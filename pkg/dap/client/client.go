package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	godap "github.com/google/go-dap"

	"github.com/sprintloop/debugcore/internal/log"
	"github.com/sprintloop/debugcore/pkg/dap"
	"github.com/sprintloop/debugcore/pkg/errors"
)

const (
	dialAttempts = 10
	dialBackoff  = 200 * time.Millisecond

	// eventBuffer bounds how far the adapter can run ahead of the engine.
	eventBuffer = 64
)

// Client is a DAP client over a single TCP connection. It implements
// dap.Transport.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	logger *slog.Logger

	writeMu sync.Mutex

	mu          sync.Mutex
	seq         int
	pending     map[int]chan godap.Message
	initialized chan struct{}
	initOnce    sync.Once
	exitCode    int
	closed      bool

	events chan dap.Event
	done   chan struct{}
}

var _ dap.Transport = (*Client)(nil)

// Dial connects to a debug adapter listening at addr. Adapters are commonly
// spawned just before the connection attempt, so refused connections are
// retried with backoff before giving up.
func Dial(ctx context.Context, addr string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = log.WithComponent(logger, "dap-client")

	var dialer net.Dialer
	var conn net.Conn
	var err error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, &errors.TransportError{Op: "dial", Cause: ctx.Err()}
		}
		log.Trace(logger, "adapter not ready, retrying",
			slog.String("addr", addr),
			slog.Int("attempt", attempt+1),
		)
		select {
		case <-time.After(dialBackoff):
		case <-ctx.Done():
			return nil, &errors.TransportError{Op: "dial", Cause: ctx.Err()}
		}
	}
	if err != nil {
		return nil, &errors.TransportError{Op: "dial", Cause: err}
	}

	c := newClient(conn, logger)
	logger.Info("connected to debug adapter", slog.String("addr", addr))
	return c, nil
}

// newClient wraps an established connection and starts the read loop.
func newClient(conn net.Conn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		conn:        conn,
		reader:      bufio.NewReader(conn),
		logger:      logger,
		pending:     make(map[int]chan godap.Message),
		initialized: make(chan struct{}),
		events:      make(chan dap.Event, eventBuffer),
		done:        make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Launch runs the DAP configuration handshake: initialize, launch or attach,
// then configurationDone once the adapter signals it is ready. Breakpoints
// set afterwards take effect immediately; every adapter this client targets
// supports live setBreakpoints.
func (c *Client) Launch(ctx context.Context, cfg dap.LaunchConfig) error {
	initReq := &godap.InitializeRequest{
		Request: c.newRequest("initialize"),
		Arguments: godap.InitializeRequestArguments{
			ClientID:             "debugcore",
			ClientName:           "debugcore",
			AdapterID:            "debugcore",
			Locale:               "en-US",
			LinesStartAt1:        true,
			ColumnsStartAt1:      true,
			PathFormat:           "path",
			SupportsVariableType: true,
		},
	}
	if _, err := c.roundTrip(ctx, initReq); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	args, err := launchArguments(cfg)
	if err != nil {
		return err
	}
	var launchMsg godap.Message
	var launchSeq int
	if cfg.Request == "attach" {
		req := &godap.AttachRequest{Request: c.newRequest("attach")}
		req.Arguments = args
		launchMsg, launchSeq = req, req.Seq
	} else {
		req := &godap.LaunchRequest{Request: c.newRequest("launch")}
		req.Arguments = args
		launchMsg, launchSeq = req, req.Seq
	}

	// The launch response is commonly deferred until configurationDone, so
	// the request is sent without waiting and collected at the end.
	launchCh, err := c.send(launchMsg, launchSeq)
	if err != nil {
		return fmt.Errorf("launch: %w", err)
	}

	select {
	case <-c.initialized:
	case <-c.done:
		return &errors.TransportError{Op: "launch", Cause: fmt.Errorf("connection closed before initialized event")}
	case <-ctx.Done():
		return &errors.TransportError{Op: "launch", Cause: ctx.Err()}
	}

	cfgDone := &godap.ConfigurationDoneRequest{Request: c.newRequest("configurationDone")}
	if _, err := c.roundTrip(ctx, cfgDone); err != nil {
		return fmt.Errorf("configurationDone: %w", err)
	}

	if _, err := c.await(ctx, launchSeq, launchCh); err != nil {
		return fmt.Errorf("launch: %w", err)
	}
	return nil
}

// Terminate asks the adapter to end the debuggee.
func (c *Client) Terminate(ctx context.Context) error {
	req := &godap.TerminateRequest{Request: c.newRequest("terminate")}
	_, err := c.roundTrip(ctx, req)
	return err
}

// Continue resumes the given thread.
func (c *Client) Continue(ctx context.Context, threadID int) error {
	req := &godap.ContinueRequest{Request: c.newRequest("continue")}
	req.Arguments.ThreadId = threadID
	_, err := c.roundTrip(ctx, req)
	return err
}

// Pause suspends the given thread.
func (c *Client) Pause(ctx context.Context, threadID int) error {
	req := &godap.PauseRequest{Request: c.newRequest("pause")}
	req.Arguments.ThreadId = threadID
	_, err := c.roundTrip(ctx, req)
	return err
}

// Next steps over the current line.
func (c *Client) Next(ctx context.Context, threadID int) error {
	req := &godap.NextRequest{Request: c.newRequest("next")}
	req.Arguments.ThreadId = threadID
	_, err := c.roundTrip(ctx, req)
	return err
}

// StepIn steps into the call at the current line.
func (c *Client) StepIn(ctx context.Context, threadID int) error {
	req := &godap.StepInRequest{Request: c.newRequest("stepIn")}
	req.Arguments.ThreadId = threadID
	_, err := c.roundTrip(ctx, req)
	return err
}

// StepOut runs until the current frame returns.
func (c *Client) StepOut(ctx context.Context, threadID int) error {
	req := &godap.StepOutRequest{Request: c.newRequest("stepOut")}
	req.Arguments.ThreadId = threadID
	_, err := c.roundTrip(ctx, req)
	return err
}

// StackTrace fetches the ordered call stack for a thread.
func (c *Client) StackTrace(ctx context.Context, threadID int) ([]dap.StackFrame, error) {
	req := &godap.StackTraceRequest{Request: c.newRequest("stackTrace")}
	req.Arguments.ThreadId = threadID

	msg, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, ok := msg.(*godap.StackTraceResponse)
	if !ok {
		return nil, unexpectedResponse("stackTrace", msg)
	}

	frames := make([]dap.StackFrame, 0, len(resp.Body.StackFrames))
	for _, f := range resp.Body.StackFrames {
		frame := dap.StackFrame{
			ID:     f.Id,
			Name:   f.Name,
			Line:   f.Line,
			Column: f.Column,
		}
		if f.Source != nil {
			frame.Source = dap.Source{Name: f.Source.Name, Path: f.Source.Path}
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// Scopes fetches the variable scopes of a frame.
func (c *Client) Scopes(ctx context.Context, frameID int) ([]dap.Scope, error) {
	req := &godap.ScopesRequest{Request: c.newRequest("scopes")}
	req.Arguments.FrameId = frameID

	msg, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, ok := msg.(*godap.ScopesResponse)
	if !ok {
		return nil, unexpectedResponse("scopes", msg)
	}

	scopes := make([]dap.Scope, 0, len(resp.Body.Scopes))
	for _, s := range resp.Body.Scopes {
		scopes = append(scopes, dap.Scope{
			Name:               s.Name,
			VariablesReference: s.VariablesReference,
			NamedVariables:     s.NamedVariables,
			IndexedVariables:   s.IndexedVariables,
			Expensive:          s.Expensive,
		})
	}
	return scopes, nil
}

// Variables fetches the ordered children of a variable reference.
func (c *Client) Variables(ctx context.Context, variablesReference int) ([]dap.Variable, error) {
	req := &godap.VariablesRequest{Request: c.newRequest("variables")}
	req.Arguments.VariablesReference = variablesReference

	msg, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, ok := msg.(*godap.VariablesResponse)
	if !ok {
		return nil, unexpectedResponse("variables", msg)
	}

	vars := make([]dap.Variable, 0, len(resp.Body.Variables))
	for _, v := range resp.Body.Variables {
		vars = append(vars, dap.Variable{
			Name:               v.Name,
			Value:              v.Value,
			Type:               v.Type,
			VariablesReference: v.VariablesReference,
			NamedVariables:     v.NamedVariables,
			IndexedVariables:   v.IndexedVariables,
			EvaluateName:       v.EvaluateName,
		})
	}
	return vars, nil
}

// SetVariable mutates a named child of a variable reference.
func (c *Client) SetVariable(ctx context.Context, variablesReference int, name, value string) (dap.Variable, error) {
	req := &godap.SetVariableRequest{Request: c.newRequest("setVariable")}
	req.Arguments.VariablesReference = variablesReference
	req.Arguments.Name = name
	req.Arguments.Value = value

	msg, err := c.roundTrip(ctx, req)
	if err != nil {
		return dap.Variable{}, err
	}
	resp, ok := msg.(*godap.SetVariableResponse)
	if !ok {
		return dap.Variable{}, unexpectedResponse("setVariable", msg)
	}

	return dap.Variable{
		Name:               name,
		Value:              resp.Body.Value,
		Type:               resp.Body.Type,
		VariablesReference: resp.Body.VariablesReference,
		NamedVariables:     resp.Body.NamedVariables,
		IndexedVariables:   resp.Body.IndexedVariables,
	}, nil
}

// Evaluate evaluates an expression in the context of a frame. The "watch"
// context tells adapters to avoid side effects where they can.
func (c *Client) Evaluate(ctx context.Context, expression string, frameID int) (dap.EvaluateResult, error) {
	req := &godap.EvaluateRequest{Request: c.newRequest("evaluate")}
	req.Arguments.Expression = expression
	req.Arguments.FrameId = frameID
	req.Arguments.Context = "watch"

	msg, err := c.roundTrip(ctx, req)
	if err != nil {
		return dap.EvaluateResult{}, err
	}
	resp, ok := msg.(*godap.EvaluateResponse)
	if !ok {
		return dap.EvaluateResult{}, unexpectedResponse("evaluate", msg)
	}

	return dap.EvaluateResult{
		Result:             resp.Body.Result,
		Type:               resp.Body.Type,
		VariablesReference: resp.Body.VariablesReference,
	}, nil
}

// SetBreakpoints replaces all breakpoints in a file. Results come back in
// request order; registry ids are carried over by position since the wire
// protocol assigns its own ids.
func (c *Client) SetBreakpoints(ctx context.Context, file string, breakpoints []dap.Breakpoint) ([]dap.Breakpoint, error) {
	req := &godap.SetBreakpointsRequest{Request: c.newRequest("setBreakpoints")}
	req.Arguments.Source = godap.Source{Path: file}
	req.Arguments.Breakpoints = make([]godap.SourceBreakpoint, 0, len(breakpoints))
	for _, bp := range breakpoints {
		req.Arguments.Breakpoints = append(req.Arguments.Breakpoints, godap.SourceBreakpoint{
			Line:         bp.Line,
			Column:       bp.Column,
			Condition:    bp.Condition,
			HitCondition: bp.HitCondition,
			LogMessage:   bp.LogMessage,
		})
	}

	msg, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, ok := msg.(*godap.SetBreakpointsResponse)
	if !ok {
		return nil, unexpectedResponse("setBreakpoints", msg)
	}

	results := make([]dap.Breakpoint, 0, len(resp.Body.Breakpoints))
	for i, res := range resp.Body.Breakpoints {
		out := dap.Breakpoint{
			Verified: res.Verified,
			Message:  res.Message,
			Line:     res.Line,
			File:     file,
		}
		if i < len(breakpoints) {
			out.ID = breakpoints[i].ID
			out.Enabled = breakpoints[i].Enabled
			out.Condition = breakpoints[i].Condition
			out.HitCondition = breakpoints[i].HitCondition
			out.LogMessage = breakpoints[i].LogMessage
			if out.Line == 0 {
				out.Line = breakpoints[i].Line
			}
		}
		results = append(results, out)
	}
	return results, nil
}

// Events returns the adapter event stream. Closed when the connection ends.
func (c *Client) Events() <-chan dap.Event {
	return c.events
}

// Close sends a best-effort disconnect and tears down the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)

	req := &godap.DisconnectRequest{Request: c.newRequest("disconnect")}
	c.writeMu.Lock()
	godap.WriteProtocolMessage(c.conn, req)
	c.writeMu.Unlock()

	return c.conn.Close()
}

// newRequest allocates the next sequence number.
func (c *Client) newRequest(command string) godap.Request {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	return godap.Request{
		ProtocolMessage: godap.ProtocolMessage{Seq: seq, Type: "request"},
		Command:         command,
	}
}

// send registers a waiter and writes the request.
func (c *Client) send(msg godap.Message, seq int) (chan godap.Message, error) {
	ch := make(chan godap.Message, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &errors.TransportError{Op: "send", Cause: net.ErrClosed}
	}
	c.pending[seq] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := godap.WriteProtocolMessage(c.conn, msg)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
		return nil, &errors.TransportError{Op: "send", Cause: err}
	}
	return ch, nil
}

// await blocks until the response for seq arrives and validates it.
func (c *Client) await(ctx context.Context, seq int, ch chan godap.Message) (godap.Message, error) {
	select {
	case msg, ok := <-ch:
		if !ok {
			return nil, &errors.TransportError{Op: "await", Cause: fmt.Errorf("connection closed")}
		}
		return checkResponse(msg)
	case <-c.done:
		return nil, &errors.TransportError{Op: "await", Cause: fmt.Errorf("connection closed")}
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
		return nil, &errors.TransportError{Op: "await", Cause: ctx.Err()}
	}
}

// roundTrip sends a request and waits for its validated response.
func (c *Client) roundTrip(ctx context.Context, msg godap.RequestMessage) (godap.Message, error) {
	seq := msg.GetRequest().Seq
	ch, err := c.send(msg, seq)
	if err != nil {
		return nil, err
	}
	return c.await(ctx, seq, ch)
}

// readLoop demuxes the single inbound stream: responses to their waiters,
// events to the engine's channel.
func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		for seq, ch := range c.pending {
			close(ch)
			delete(c.pending, seq)
		}
		c.mu.Unlock()
		close(c.events)
	}()

	for {
		msg, err := godap.ReadProtocolMessage(c.reader)
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Warn("adapter connection lost", log.Error(err))
			}
			return
		}

		switch m := msg.(type) {
		case *godap.InitializedEvent:
			c.initOnce.Do(func() { close(c.initialized) })
		case *godap.StoppedEvent:
			c.forward(dap.Event{
				Type:     dap.EventStopped,
				Reason:   m.Body.Reason,
				ThreadID: m.Body.ThreadId,
			})
		case *godap.ContinuedEvent:
			c.forward(dap.Event{
				Type:     dap.EventContinued,
				ThreadID: m.Body.ThreadId,
			})
		case *godap.ExitedEvent:
			// Exit code precedes the terminated event; remember it so the
			// terminated event can carry it.
			c.mu.Lock()
			c.exitCode = m.Body.ExitCode
			c.mu.Unlock()
		case *godap.TerminatedEvent:
			c.mu.Lock()
			exitCode := c.exitCode
			c.mu.Unlock()
			c.forward(dap.Event{
				Type:     dap.EventTerminated,
				ExitCode: exitCode,
			})
		case *godap.OutputEvent:
			c.forward(dap.Event{
				Type:     dap.EventOutput,
				Category: m.Body.Category,
				Output:   m.Body.Output,
			})
		case *godap.BreakpointEvent:
			bp := &dap.Breakpoint{
				ID:       m.Body.Breakpoint.Id,
				Line:     m.Body.Breakpoint.Line,
				Verified: m.Body.Breakpoint.Verified,
				Message:  m.Body.Breakpoint.Message,
			}
			if m.Body.Breakpoint.Source != nil {
				bp.File = m.Body.Breakpoint.Source.Path
			}
			c.forward(dap.Event{
				Type:       dap.EventBreakpoint,
				Reason:     m.Body.Reason,
				Breakpoint: bp,
			})
		case godap.ResponseMessage:
			resp := m.GetResponse()
			c.mu.Lock()
			ch, ok := c.pending[resp.RequestSeq]
			if ok {
				delete(c.pending, resp.RequestSeq)
			}
			c.mu.Unlock()
			if ok {
				ch <- msg
			} else {
				log.Trace(c.logger, "response without waiter",
					slog.Int("request_seq", resp.RequestSeq),
					slog.String("command", resp.Command),
				)
			}
		default:
			log.Trace(c.logger, "ignoring adapter message",
				slog.String(log.EventKey, fmt.Sprintf("%T", msg)),
			)
		}
	}
}

// forward pushes an event, stamping receipt time. Drops on a full buffer so
// a stalled consumer cannot deadlock the read loop.
func (c *Client) forward(ev dap.Event) {
	ev.Timestamp = time.Now()
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("event buffer full, dropping event", slog.String(log.EventKey, string(ev.Type)))
	}
}

// checkResponse surfaces adapter-reported failures as errors.
func checkResponse(msg godap.Message) (godap.Message, error) {
	resp, ok := msg.(godap.ResponseMessage)
	if !ok {
		return nil, fmt.Errorf("expected a response, got %T", msg)
	}
	r := resp.GetResponse()
	if !r.Success {
		reason := r.Message
		if er, ok := msg.(*godap.ErrorResponse); ok && er.Body.Error != nil && er.Body.Error.Format != "" {
			reason = er.Body.Error.Format
		}
		if reason == "" {
			reason = "request failed"
		}
		return nil, fmt.Errorf("%s: %s", r.Command, reason)
	}
	return msg, nil
}

// unexpectedResponse reports a mismatched response type for a command.
func unexpectedResponse(command string, msg godap.Message) error {
	return &errors.TransportError{
		Op:    command,
		Cause: fmt.Errorf("unexpected response type %T", msg),
	}
}

// launchArguments builds the adapter-specific launch/attach body. Launch
// arguments are not part of the protocol schema, so they travel as raw JSON.
func launchArguments(cfg dap.LaunchConfig) (json.RawMessage, error) {
	args := map[string]interface{}{
		"name":    cfg.Name,
		"request": cfg.Request,
	}
	if cfg.Request != "attach" {
		args["program"] = cfg.Program
	}
	if len(cfg.Args) > 0 {
		args["args"] = cfg.Args
	}
	if cfg.Cwd != "" {
		args["cwd"] = cfg.Cwd
	}
	if len(cfg.Env) > 0 {
		args["env"] = cfg.Env
	}
	if cfg.StopOnEntry {
		args["stopOnEntry"] = true
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal launch arguments: %w", err)
	}
	return raw, nil
}
