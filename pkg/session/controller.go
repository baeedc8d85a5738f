package session

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sprintloop/debugcore/internal/log"
	"github.com/sprintloop/debugcore/pkg/breakpoints"
	"github.com/sprintloop/debugcore/pkg/dap"
	"github.com/sprintloop/debugcore/pkg/errors"
)

// DialFunc connects to the debug adapter named by a launch configuration.
// The controller owns the returned transport and closes it on session end.
type DialFunc func(ctx context.Context, cfg dap.LaunchConfig) (dap.Transport, error)

// stackFetchTimeout bounds the stack-trace round trip that follows a stop
// event. A hung adapter must not wedge the event pump forever.
const stackFetchTimeout = 10 * time.Second

// Controller is the debug-session engine. It owns the lifecycle state
// machine and every cache derived from a stop event: the call stack, the
// variable resolver, and the watch results.
//
// All exported methods are safe for concurrent use. Control commands are
// two-phase: derived caches are cleared and the state pre-transitioned
// before the adapter request is issued, so a caller can never observe
// stale frames or handles during the in-flight window.
type Controller struct {
	mu sync.Mutex

	logger   *slog.Logger
	emitter  *EventEmitter
	dial     DialFunc
	registry *breakpoints.Registry

	transport dap.Transport
	state     dap.SessionState
	sessionID string

	// sessionGen is bumped on every start and reset. Async completions
	// carry the generation they were issued under and are discarded when
	// it no longer matches.
	sessionGen uint64

	cfg        dap.LaunchConfig
	hasConfig  bool
	threadID   int
	stopReason string

	// currentFrameID is a frame id from the current stack cache, or zero
	// when no frame is selected.
	currentFrameID int

	stack    *stackCache
	resolver *Resolver
	watches  *watchList

	// entryStop is closed when the first stop event of a session arrives.
	entryStop     chan struct{}
	entryStopOnce *sync.Once
}

// NewController creates a controller in the inactive state. The registry may
// be nil when breakpoint forwarding is not wanted.
func NewController(dial DialFunc, registry *breakpoints.Registry, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		logger:   log.WithComponent(logger, "session"),
		emitter:  NewEventEmitter(),
		dial:     dial,
		registry: registry,
		state:    dap.StateInactive,
		threadID: 1,
		stack:    newStackCache(),
		resolver: newResolver(),
		watches:  newWatchList(),
	}
	if registry != nil {
		registry.SetSink(c.forwardBreakpoints)
	}
	return c
}

// Emitter exposes the engine event stream for subscribers.
func (c *Controller) Emitter() *EventEmitter {
	return c.emitter
}

// State returns the current session state.
func (c *Controller) State() dap.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// SessionID returns the id of the current session, or "" when inactive.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionID
}

// StopReason returns why the debuggee is paused ("breakpoint", "step",
// "pause", "entry", "exception"), or "" when it is not.
func (c *Controller) StopReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != dap.StatePaused {
		return ""
	}
	return c.stopReason
}

// Start launches a new session from the given configuration. Only valid
// from the inactive state: a stopped session must be acknowledged first.
//
// When the configuration sets stopOnEntry, Start blocks until the entry
// stop event has been processed and the first call stack is installed.
func (c *Controller) Start(ctx context.Context, cfg dap.LaunchConfig) error {
	c.mu.Lock()
	if c.state != dap.StateInactive {
		state := c.state
		c.mu.Unlock()
		return &errors.InvalidStateError{Op: "start", State: string(state)}
	}

	c.sessionGen++
	gen := c.sessionGen
	sessionID := uuid.New().String()
	c.sessionID = sessionID
	c.cfg = cfg
	c.hasConfig = true
	c.entryStop = make(chan struct{})
	c.entryStopOnce = &sync.Once{}
	entryStop := c.entryStop
	c.mu.Unlock()

	logger := log.WithSessionContext(c.logger, sessionID)
	logger.Info("starting session", slog.String("config", cfg.Name), slog.String("adapter", cfg.Adapter))

	transport, err := c.dial(ctx, cfg)
	if err != nil {
		c.mu.Lock()
		c.sessionID = ""
		c.mu.Unlock()
		return &errors.SessionStartError{Config: cfg.Name, Reason: "adapter connection failed", Cause: err}
	}

	c.mu.Lock()
	if c.sessionGen != gen {
		c.mu.Unlock()
		transport.Close()
		return &errors.SessionStartError{Config: cfg.Name, Reason: "superseded by a newer session"}
	}
	c.transport = transport
	c.resolver.bind(transport)
	c.setStateLocked(dap.StateRunning, "start")
	c.mu.Unlock()

	go c.pump(gen, sessionID, transport)

	if err := transport.Launch(ctx, cfg); err != nil {
		// A rejected launch never ran the debuggee, so the session resets
		// to inactive and the caller can retry directly. The terminal
		// stopped state is reserved for failures of a live session.
		c.mu.Lock()
		if c.sessionGen == gen {
			c.teardownLocked()
		}
		c.mu.Unlock()
		transport.Close()
		return &errors.SessionStartError{Config: cfg.Name, Reason: "launch failed", Cause: err}
	}

	c.syncBreakpoints(ctx, gen)

	c.emitter.EmitStateChanged(ctx, sessionID, dap.StateInactive, dap.StateRunning, "start")

	if cfg.StopOnEntry {
		select {
		case <-entryStop:
		case <-ctx.Done():
			return &errors.SessionStartError{Config: cfg.Name, Reason: "waiting for entry stop", Cause: ctx.Err()}
		}
	}
	return nil
}

// Stop ends the current session. Idempotent: stopping an inactive session
// is a no-op, and stopping a terminal (stopped) session acknowledges it.
// Adapter errors during teardown are logged, never returned; local state
// always ends up inactive.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state == dap.StateInactive {
		c.mu.Unlock()
		return nil
	}
	from := c.state
	sessionID := c.sessionID
	transport := c.transport
	c.teardownLocked()
	c.mu.Unlock()

	if transport != nil {
		if from != dap.StateStopped {
			termCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := transport.Terminate(termCtx); err != nil {
				c.logger.Warn("terminate request failed", log.Error(err), slog.String(log.SessionIDKey, sessionID))
			}
			cancel()
		}
		transport.Close()
	}

	c.emitter.EmitStateChanged(ctx, sessionID, from, dap.StateInactive, "stop")
	c.emitter.Emit(ctx, &Event{
		Type:      EventTerminated,
		SessionID: sessionID,
		Data:      map[string]interface{}{"reason": "stop"},
	})
	return nil
}

// AcknowledgeStop clears a terminal stopped session, returning the engine
// to inactive so a new session can start. Valid only from stopped.
func (c *Controller) AcknowledgeStop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != dap.StateStopped {
		state := c.state
		c.mu.Unlock()
		return &errors.InvalidStateError{Op: "acknowledgeStop", State: string(state)}
	}
	sessionID := c.sessionID
	transport := c.transport
	c.teardownLocked()
	c.mu.Unlock()

	if transport != nil {
		transport.Close()
	}
	c.emitter.EmitStateChanged(ctx, sessionID, dap.StateStopped, dap.StateInactive, "acknowledge")
	return nil
}

// Restart stops the current session and starts a new one from the same
// configuration. Frame ids, variable handles, and watch results from the
// old session never survive into the new one.
func (c *Controller) Restart(ctx context.Context) error {
	c.mu.Lock()
	if !c.hasConfig {
		state := c.state
		c.mu.Unlock()
		return &errors.InvalidStateError{Op: "restart", State: string(state)}
	}
	cfg := c.cfg
	c.mu.Unlock()

	if err := c.Stop(ctx); err != nil {
		return err
	}
	return c.Start(ctx, cfg)
}

// Continue resumes execution. Valid only from paused.
func (c *Controller) Continue(ctx context.Context) error {
	return c.resume(ctx, "continue", dap.Transport.Continue)
}

// StepOver executes the current line and stops on the next one in the same
// frame. Valid only from paused.
func (c *Controller) StepOver(ctx context.Context) error {
	return c.resume(ctx, "next", dap.Transport.Next)
}

// StepInto steps into the call at the current line. Valid only from paused.
func (c *Controller) StepInto(ctx context.Context) error {
	return c.resume(ctx, "stepIn", dap.Transport.StepIn)
}

// StepOut runs until the current frame returns. Valid only from paused.
func (c *Controller) StepOut(ctx context.Context) error {
	return c.resume(ctx, "stepOut", dap.Transport.StepOut)
}

// resume implements the shared two-phase shape of every resuming command:
// clear the derived caches and pre-transition to running, then issue the
// request. The in-flight window between request and the adapter's stopped
// event therefore never exposes stale state.
func (c *Controller) resume(ctx context.Context, op string, issue func(dap.Transport, context.Context, int) error) error {
	c.mu.Lock()
	if !c.state.CanResume() {
		state := c.state
		c.mu.Unlock()
		return &errors.InvalidStateError{Op: op, State: string(state)}
	}
	gen := c.sessionGen
	sessionID := c.sessionID
	transport := c.transport
	threadID := c.threadID
	c.clearDerivedLocked()
	c.setStateLocked(dap.StateRunning, op)
	c.mu.Unlock()

	c.emitter.EmitStateChanged(ctx, sessionID, dap.StatePaused, dap.StateRunning, op)
	c.emitter.Emit(ctx, &Event{
		Type:      EventContinued,
		SessionID: sessionID,
		Data:      map[string]interface{}{"reason": op},
	})

	if err := issue(transport, ctx, threadID); err != nil {
		c.failTransport(gen, err)
		return &errors.TransportError{Op: op, Cause: err}
	}
	return nil
}

// Pause asks the adapter to suspend the debuggee. Valid only from running.
// The transition to paused happens when the stopped event arrives, not on
// the request acknowledgement.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.CanPause() {
		state := c.state
		c.mu.Unlock()
		return &errors.InvalidStateError{Op: "pause", State: string(state)}
	}
	gen := c.sessionGen
	transport := c.transport
	threadID := c.threadID
	c.mu.Unlock()

	if err := transport.Pause(ctx, threadID); err != nil {
		c.failTransport(gen, err)
		return &errors.TransportError{Op: "pause", Cause: err}
	}
	return nil
}

// CallStack returns the frames captured at the current stop event, innermost
// first. Empty while the debuggee is running.
func (c *Controller) CallStack() []dap.StackFrame {
	return c.stack.Frames()
}

// CurrentFrame returns the selected frame, defaulting to the innermost
// frame after every stop. ok is false when the debuggee is not paused.
func (c *Controller) CurrentFrame() (dap.StackFrame, bool) {
	c.mu.Lock()
	frameID := c.currentFrameID
	paused := c.state == dap.StatePaused
	c.mu.Unlock()

	if !paused {
		return dap.StackFrame{}, false
	}
	for _, f := range c.stack.Frames() {
		if f.ID == frameID {
			return f, true
		}
	}
	return dap.StackFrame{}, false
}

// SetCurrentFrame selects a frame from the current call stack. The frame id
// must come from the stack captured at this stop event.
func (c *Controller) SetCurrentFrame(ctx context.Context, frameID int) error {
	c.mu.Lock()
	if c.state != dap.StatePaused {
		state := c.state
		c.mu.Unlock()
		return &errors.InvalidStateError{Op: "setCurrentFrame", State: string(state)}
	}
	if !c.stack.contains(frameID) {
		c.mu.Unlock()
		return &errors.NotFoundError{Resource: "frame", ID: strconv.Itoa(frameID)}
	}
	c.currentFrameID = frameID
	sessionID := c.sessionID
	c.mu.Unlock()

	// The selected frame changes the evaluation context of every watch.
	c.evaluateWatches(ctx, sessionID)
	return nil
}

// Scopes returns the variable scopes of a frame at the current stop event.
func (c *Controller) Scopes(ctx context.Context, frameID int) ([]dap.Scope, error) {
	if err := c.requirePaused("scopes"); err != nil {
		return nil, err
	}
	return c.resolver.Scopes(ctx, frameID)
}

// Variables returns the ordered children of a variable reference. Handles
// are scoped to the current stop event; a handle issued before the last
// resume yields a fresh fetch, never stale children.
func (c *Controller) Variables(ctx context.Context, variablesReference int) ([]dap.Variable, error) {
	if err := c.requirePaused("variables"); err != nil {
		return nil, err
	}
	return c.resolver.Variables(ctx, variablesReference)
}

// SetVariable writes a new value to a named child of a variable reference
// and re-evaluates all watches, since the write may change any of them.
func (c *Controller) SetVariable(ctx context.Context, variablesReference int, name, value string) (dap.Variable, error) {
	if err := c.requirePaused("setVariable"); err != nil {
		return dap.Variable{}, err
	}
	updated, err := c.resolver.SetVariable(ctx, variablesReference, name, value)
	if err != nil {
		return dap.Variable{}, err
	}

	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	c.evaluateWatches(ctx, sessionID)

	return updated, nil
}

// Evaluate evaluates an expression in the context of the selected frame.
func (c *Controller) Evaluate(ctx context.Context, expression string) (dap.EvaluateResult, error) {
	c.mu.Lock()
	if c.state != dap.StatePaused {
		state := c.state
		c.mu.Unlock()
		return dap.EvaluateResult{}, &errors.InvalidStateError{Op: "evaluate", State: string(state)}
	}
	transport := c.transport
	frameID := c.currentFrameID
	c.mu.Unlock()

	result, err := transport.Evaluate(ctx, expression, frameID)
	if err != nil {
		return dap.EvaluateResult{}, &errors.EvaluationError{Expression: expression, Message: err.Error()}
	}
	return result, nil
}

// AddWatch registers a watch expression. When the debuggee is paused it is
// evaluated immediately; otherwise the result stays unavailable until the
// next stop event.
func (c *Controller) AddWatch(ctx context.Context, expression string) (dap.WatchExpression, error) {
	if expression == "" {
		return dap.WatchExpression{}, &errors.ValidationError{Field: "expression", Message: "cannot be empty"}
	}
	watch := c.watches.add(expression)

	c.mu.Lock()
	paused := c.state == dap.StatePaused
	sessionID := c.sessionID
	transport := c.transport
	frameID := c.currentFrameID
	c.mu.Unlock()

	if paused {
		c.evaluateWatch(ctx, transport, frameID, watch.ID, expression)
		c.emitWatchesUpdated(ctx, sessionID)
	}

	updated, _ := c.watches.get(watch.ID)
	return updated, nil
}

// EvaluateWatch re-runs one watch expression against the selected frame and
// returns its updated result. When the debuggee is not paused the result is
// unavailable; that is not an error.
func (c *Controller) EvaluateWatch(ctx context.Context, id int) (dap.WatchExpression, error) {
	watch, ok := c.watches.get(id)
	if !ok {
		return dap.WatchExpression{}, &errors.NotFoundError{Resource: "watch", ID: strconv.Itoa(id)}
	}

	c.mu.Lock()
	paused := c.state == dap.StatePaused
	sessionID := c.sessionID
	transport := c.transport
	frameID := c.currentFrameID
	c.mu.Unlock()

	if paused && transport != nil {
		c.evaluateWatch(ctx, transport, frameID, id, watch.Expression)
	} else {
		c.watches.markUnavailable(id)
	}
	c.emitWatchesUpdated(ctx, sessionID)

	updated, _ := c.watches.get(id)
	return updated, nil
}

// RemoveWatch deletes a watch expression.
func (c *Controller) RemoveWatch(id int) error {
	return c.watches.remove(id)
}

// Watches returns every watch expression with its latest result, in
// creation order.
func (c *Controller) Watches() []dap.WatchExpression {
	return c.watches.all()
}

// requirePaused gates inspection operations on the paused state.
func (c *Controller) requirePaused(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != dap.StatePaused {
		return &errors.InvalidStateError{Op: op, State: string(c.state)}
	}
	return nil
}

// pump drains the transport's event stream for one session. It exits when
// the transport closes its channel; events are ignored once the session
// generation has moved on.
func (c *Controller) pump(gen uint64, sessionID string, transport dap.Transport) {
	logger := log.WithSessionContext(c.logger, sessionID)
	ctx := context.Background()

	for ev := range transport.Events() {
		c.mu.Lock()
		current := c.sessionGen == gen
		c.mu.Unlock()
		if !current {
			log.Trace(logger, "discarding event from retired session", slog.String(log.EventKey, string(ev.Type)))
			continue
		}

		switch ev.Type {
		case dap.EventStopped:
			c.handleStopped(ctx, gen, sessionID, transport, ev)
		case dap.EventContinued:
			c.handleContinued(ctx, gen, sessionID)
		case dap.EventTerminated:
			c.handleTerminated(ctx, gen, sessionID, ev)
		case dap.EventOutput:
			c.emitter.EmitOutput(ctx, sessionID, ev.Category, ev.Output)
		case dap.EventBreakpoint:
			c.handleBreakpointEvent(ctx, sessionID, ev)
		}
	}
	log.Trace(logger, "event pump exited")
}

// handleStopped processes a stop event: fetch the stack, install it, select
// the innermost frame, and re-evaluate watches. The install is dropped if
// the session generation moved on during the stack fetch.
func (c *Controller) handleStopped(ctx context.Context, gen uint64, sessionID string, transport dap.Transport, ev dap.Event) {
	stopEvents.Inc()
	logger := log.WithSessionContext(c.logger, sessionID)

	threadID := ev.ThreadID
	if threadID == 0 {
		threadID = 1
	}

	fetchCtx, cancel := context.WithTimeout(ctx, stackFetchTimeout)
	start := time.Now()
	frames, err := transport.StackTrace(fetchCtx, threadID)
	cancel()
	stackFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("stack fetch failed after stop", log.Error(err))
		c.failTransport(gen, err)
		return
	}

	c.mu.Lock()
	if c.sessionGen != gen {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.threadID = threadID
	c.stopReason = ev.Reason
	c.stack.replace(frames)
	if len(frames) > 0 {
		c.currentFrameID = frames[0].ID
	} else {
		c.currentFrameID = 0
	}
	c.setStateLocked(dap.StatePaused, ev.Reason)
	once := c.entryStopOnce
	entryStop := c.entryStop
	c.mu.Unlock()

	logger.Info("debuggee stopped",
		slog.String("reason", ev.Reason),
		slog.Int("frames", len(frames)),
	)

	c.emitter.EmitStateChanged(ctx, sessionID, from, dap.StatePaused, ev.Reason)
	c.emitter.EmitStopped(ctx, sessionID, ev.Reason, threadID)
	c.emitter.EmitStackUpdated(ctx, sessionID, len(frames))

	c.evaluateWatches(ctx, sessionID)

	if once != nil {
		once.Do(func() { close(entryStop) })
	}
}

// handleContinued processes an adapter-initiated resume, which clears the
// derived caches exactly as a local resume command would.
func (c *Controller) handleContinued(ctx context.Context, gen uint64, sessionID string) {
	c.mu.Lock()
	if c.sessionGen != gen || c.state != dap.StatePaused {
		c.mu.Unlock()
		return
	}
	c.clearDerivedLocked()
	c.setStateLocked(dap.StateRunning, "continued")
	c.mu.Unlock()

	c.emitter.EmitStateChanged(ctx, sessionID, dap.StatePaused, dap.StateRunning, "continued")
	c.emitter.Emit(ctx, &Event{
		Type:      EventContinued,
		SessionID: sessionID,
		Data:      map[string]interface{}{"reason": "continued"},
	})
}

// handleTerminated moves the session to the terminal stopped state. The
// session stays there, holding its exit information, until acknowledged.
func (c *Controller) handleTerminated(ctx context.Context, gen uint64, sessionID string, ev dap.Event) {
	c.mu.Lock()
	if c.sessionGen != gen || c.state == dap.StateInactive || c.state == dap.StateStopped {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.clearDerivedLocked()
	c.setStateLocked(dap.StateStopped, "terminated")
	c.mu.Unlock()

	c.logger.Info("debuggee terminated",
		slog.String(log.SessionIDKey, sessionID),
		slog.Int("exit_code", ev.ExitCode),
	)

	c.emitter.EmitStateChanged(ctx, sessionID, from, dap.StateStopped, "terminated")
	c.emitter.Emit(ctx, &Event{
		Type:      EventTerminated,
		SessionID: sessionID,
		Data:      map[string]interface{}{"exit_code": ev.ExitCode},
	})
}

// handleBreakpointEvent applies an asynchronous verification update from
// the adapter to the registry.
func (c *Controller) handleBreakpointEvent(ctx context.Context, sessionID string, ev dap.Event) {
	if c.registry == nil || ev.Breakpoint == nil {
		return
	}
	bp, ok := c.registry.SetVerified(ev.Breakpoint.ID, ev.Breakpoint.Verified, ev.Breakpoint.Message)
	if !ok {
		return
	}
	c.emitter.Emit(ctx, &Event{
		Type:      EventBreakpointValidated,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"breakpoint": bp,
		},
	})
}

// failTransport handles a broken adapter connection: the session moves to
// the terminal stopped state and the transport is closed. Discarded if the
// generation already moved on.
func (c *Controller) failTransport(gen uint64, cause error) {
	c.mu.Lock()
	if c.sessionGen != gen || c.state == dap.StateInactive || c.state == dap.StateStopped {
		c.mu.Unlock()
		return
	}
	from := c.state
	sessionID := c.sessionID
	transport := c.transport
	c.clearDerivedLocked()
	c.setStateLocked(dap.StateStopped, "transport failure")
	c.mu.Unlock()

	c.logger.Error("transport failure, session stopped",
		log.Error(cause),
		slog.String(log.SessionIDKey, sessionID),
	)
	if transport != nil {
		transport.Close()
	}

	ctx := context.Background()
	c.emitter.EmitStateChanged(ctx, sessionID, from, dap.StateStopped, "transport failure")
	c.emitter.Emit(ctx, &Event{
		Type:      EventTerminated,
		SessionID: sessionID,
		Data:      map[string]interface{}{"reason": "transport failure"},
	})
}

// forwardBreakpoints is the registry sink: every mutation pushes the file's
// enabled breakpoints to the adapter when a session is live.
func (c *Controller) forwardBreakpoints(ctx context.Context, file string, bps []dap.Breakpoint) {
	c.mu.Lock()
	live := c.state == dap.StateRunning || c.state == dap.StatePaused
	transport := c.transport
	c.mu.Unlock()
	if !live || transport == nil {
		return
	}
	c.pushBreakpoints(ctx, transport, file, bps)
}

// syncBreakpoints pushes every file's breakpoints at session start.
func (c *Controller) syncBreakpoints(ctx context.Context, gen uint64) {
	if c.registry == nil {
		return
	}
	c.mu.Lock()
	current := c.sessionGen == gen
	transport := c.transport
	c.mu.Unlock()
	if !current || transport == nil {
		return
	}
	for _, file := range c.registry.Files() {
		c.pushBreakpoints(ctx, transport, file, c.registry.ForFile(file))
	}
}

// pushBreakpoints sends the enabled breakpoints of one file and applies the
// adapter's verification results, matched by request order.
func (c *Controller) pushBreakpoints(ctx context.Context, transport dap.Transport, file string, bps []dap.Breakpoint) {
	enabled := make([]dap.Breakpoint, 0, len(bps))
	for _, bp := range bps {
		if bp.Enabled {
			enabled = append(enabled, bp)
		}
	}

	results, err := transport.SetBreakpoints(ctx, file, enabled)
	if err != nil {
		c.logger.Warn("breakpoint sync failed",
			log.Error(err),
			slog.String(log.FileKey, file),
		)
		return
	}
	if c.registry == nil {
		return
	}
	for i, res := range results {
		if i >= len(enabled) {
			break
		}
		c.registry.SetVerified(enabled[i].ID, res.Verified, res.Message)
	}
}

// evaluateWatches re-evaluates every watch against the selected frame and
// emits a single watches-updated event.
func (c *Controller) evaluateWatches(ctx context.Context, sessionID string) {
	c.mu.Lock()
	paused := c.state == dap.StatePaused
	transport := c.transport
	frameID := c.currentFrameID
	c.mu.Unlock()

	if !paused || transport == nil {
		c.watches.markAllUnavailable()
		c.emitWatchesUpdated(ctx, sessionID)
		return
	}

	for _, watch := range c.watches.all() {
		c.evaluateWatch(ctx, transport, frameID, watch.ID, watch.Expression)
	}
	c.emitWatchesUpdated(ctx, sessionID)
}

// evaluateWatch evaluates one expression; a per-expression failure is
// recorded on that watch alone. The result generation is captured before the
// round trip: a resume or stop during the evaluation retires it, and the
// late result is dropped rather than overwriting the reset watch state.
func (c *Controller) evaluateWatch(ctx context.Context, transport dap.Transport, frameID, id int, expression string) {
	gen := c.watches.generation()
	result, err := transport.Evaluate(ctx, expression, frameID)
	if err != nil {
		recordWatchEvaluation("error")
		c.watches.setError(gen, id, err.Error())
		return
	}
	recordWatchEvaluation("ok")
	c.watches.setResult(gen, id, result)
}

func (c *Controller) emitWatchesUpdated(ctx context.Context, sessionID string) {
	c.emitter.Emit(ctx, &Event{
		Type:      EventWatchesUpdated,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"watches": c.watches.all(),
		},
	})
}

// clearDerivedLocked drops every cache derived from the current stop event.
// Caller holds c.mu.
func (c *Controller) clearDerivedLocked() {
	c.stack.clear()
	c.currentFrameID = 0
	c.stopReason = ""
	c.resolver.invalidate()
	c.watches.markAllUnavailable()
}

// teardownLocked resets the controller to inactive. Caller holds c.mu; the
// caller is responsible for closing the transport outside the lock.
func (c *Controller) teardownLocked() {
	c.sessionGen++
	c.transport = nil
	c.sessionID = ""
	c.threadID = 1
	c.clearDerivedLocked()
	c.resolver.reset()
	c.state = dap.StateInactive
	c.entryStop = nil
	c.entryStopOnce = nil
}

// setStateLocked applies a state transition. Caller holds c.mu.
func (c *Controller) setStateLocked(to dap.SessionState, reason string) {
	recordTransition(string(c.state), string(to))
	log.Trace(c.logger, "state transition",
		slog.String("from", string(c.state)),
		slog.String("to", string(to)),
		slog.String("reason", reason),
	)
	c.state = to
}
