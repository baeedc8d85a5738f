package session

import (
	"context"
	"sync"

	"github.com/sprintloop/debugcore/pkg/dap"
	"github.com/sprintloop/debugcore/pkg/errors"
)

// refKey is a generation-tagged cache key. Bumping the generation
// invalidates every entry from the previous stop event without walking and
// deleting them; stale entries simply become unreachable.
type refKey struct {
	gen uint64
	ref int
}

// Resolver resolves variable-reference handles into ordered child lists,
// caching results for the current stop-event generation only.
//
// A resolve racing a resume observes a cache miss and re-fetches from the
// adapter (a safe, if wasted, round trip) rather than returning children
// captured at the previous stop.
type Resolver struct {
	mu        sync.Mutex
	transport dap.Transport
	gen       uint64
	vars      map[refKey][]dap.Variable
	scopes    map[refKey][]dap.Scope
}

// newResolver creates a resolver with no bound transport.
func newResolver() *Resolver {
	return &Resolver{
		vars:   make(map[refKey][]dap.Variable),
		scopes: make(map[refKey][]dap.Scope),
	}
}

// bind attaches the transport of a newly started session and drops any
// state left over from the previous one.
func (r *Resolver) bind(t dap.Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transport = t
	r.gen++
	r.vars = make(map[refKey][]dap.Variable)
	r.scopes = make(map[refKey][]dap.Scope)
}

// reset detaches the transport when the session ends.
func (r *Resolver) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transport = nil
	r.gen++
	r.vars = make(map[refKey][]dap.Variable)
	r.scopes = make(map[refKey][]dap.Scope)
}

// invalidate bumps the generation, retiring every handle issued for the
// current stop event. Called on every transition out of paused.
func (r *Resolver) invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	// Maps are recreated rather than grown forever; entries under old
	// generations can never be read again.
	r.vars = make(map[refKey][]dap.Variable)
	r.scopes = make(map[refKey][]dap.Scope)
}

// generation returns the current stop-event generation.
func (r *Resolver) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.gen
}

// Variables returns the ordered children of a variable reference, fetching
// from the adapter on first access for the current generation. Child
// ordering from the adapter is preserved as-is.
func (r *Resolver) Variables(ctx context.Context, variablesReference int) ([]dap.Variable, error) {
	r.mu.Lock()
	t := r.transport
	gen := r.gen
	if t == nil {
		r.mu.Unlock()
		return nil, &errors.InvalidStateError{Op: "variables", State: string(dap.StateInactive)}
	}
	if cached, ok := r.vars[refKey{gen, variablesReference}]; ok {
		r.mu.Unlock()
		recordResolverLookup("hit")
		return copyVariables(cached), nil
	}
	r.mu.Unlock()

	recordResolverLookup("miss")
	children, err := t.Variables(ctx, variablesReference)
	if err != nil {
		return nil, &errors.TransportError{Op: "variables", Cause: err}
	}

	r.mu.Lock()
	// Store under the generation captured before the round trip: if a
	// resume raced the fetch, the entry lands in a retired generation and
	// is never served.
	r.vars[refKey{gen, variablesReference}] = copyVariables(children)
	r.mu.Unlock()

	return children, nil
}

// Scopes returns the variable scopes of a frame, cached per generation like
// any other handle lookup.
func (r *Resolver) Scopes(ctx context.Context, frameID int) ([]dap.Scope, error) {
	r.mu.Lock()
	t := r.transport
	gen := r.gen
	if t == nil {
		r.mu.Unlock()
		return nil, &errors.InvalidStateError{Op: "scopes", State: string(dap.StateInactive)}
	}
	if cached, ok := r.scopes[refKey{gen, frameID}]; ok {
		r.mu.Unlock()
		recordResolverLookup("hit")
		return copyScopes(cached), nil
	}
	r.mu.Unlock()

	recordResolverLookup("miss")
	scopes, err := t.Scopes(ctx, frameID)
	if err != nil {
		return nil, &errors.TransportError{Op: "scopes", Cause: err}
	}

	r.mu.Lock()
	r.scopes[refKey{gen, frameID}] = copyScopes(scopes)
	r.mu.Unlock()

	return scopes, nil
}

// SetVariable asks the adapter to mutate a named child of a reference. On
// success the cached children for that reference are invalidated rather
// than optimistically patched: the written value may change the displayed
// type or the child set.
func (r *Resolver) SetVariable(ctx context.Context, variablesReference int, name, value string) (dap.Variable, error) {
	r.mu.Lock()
	t := r.transport
	if t == nil {
		r.mu.Unlock()
		return dap.Variable{}, &errors.InvalidStateError{Op: "setVariable", State: string(dap.StateInactive)}
	}
	r.mu.Unlock()

	updated, err := t.SetVariable(ctx, variablesReference, name, value)
	if err != nil {
		return dap.Variable{}, &errors.EvaluationError{
			Expression: name + " = " + value,
			Message:    err.Error(),
		}
	}

	r.mu.Lock()
	delete(r.vars, refKey{r.gen, variablesReference})
	r.mu.Unlock()

	return updated, nil
}

// lookupCached returns the cached children for a reference in the current
// generation without touching the adapter. Used by tests and read-only
// consumers that must never trigger a round trip.
func (r *Resolver) lookupCached(variablesReference int) ([]dap.Variable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cached, ok := r.vars[refKey{r.gen, variablesReference}]
	if !ok {
		return nil, false
	}
	return copyVariables(cached), true
}

func copyVariables(in []dap.Variable) []dap.Variable {
	out := make([]dap.Variable, len(in))
	copy(out, in)
	return out
}

func copyScopes(in []dap.Scope) []dap.Scope {
	out := make([]dap.Scope, len(in))
	copy(out, in)
	return out
}
