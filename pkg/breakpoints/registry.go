package breakpoints

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/sprintloop/debugcore/pkg/dap"
	"github.com/sprintloop/debugcore/pkg/errors"
)

// Options holds the optional attributes of a new or updated breakpoint.
type Options struct {
	Column       int
	Condition    string
	HitCondition string
	LogMessage   string
}

// Update describes a partial mutation of an existing breakpoint.
// Nil fields are left unchanged.
type Update struct {
	Enabled      *bool
	Condition    *string
	HitCondition *string
	LogMessage   *string
}

// Sink receives the full breakpoint list for a file after any mutation
// touching that file. The registry invokes it outside its lock; failures are
// the sink's concern and never roll back registry state.
type Sink func(ctx context.Context, file string, bps []dap.Breakpoint)

// Registry owns the set of breakpoints, indexed by source file.
// Insertion order is preserved per file. Ids are monotonic and never reused,
// even after removal.
type Registry struct {
	mu     sync.RWMutex
	byFile map[string][]dap.Breakpoint
	nextID int

	store  Store
	sink   Sink
	logger *slog.Logger
}

// NewRegistry creates a breakpoint registry. store may be nil for a purely
// in-memory registry; any persisted breakpoints are loaded eagerly.
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		byFile: make(map[string][]dap.Breakpoint),
		nextID: 1,
		store:  store,
		logger: logger,
	}

	if store != nil {
		r.load()
	}

	return r
}

// SetSink registers the mutation sink. Passing nil clears it.
func (r *Registry) SetSink(sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// load restores persisted breakpoints. Ids continue after the highest
// persisted id so removal gaps are never refilled.
func (r *Registry) load() {
	persisted, err := r.store.Load(context.Background())
	if err != nil {
		r.logger.Warn("failed to load persisted breakpoints", "error", err)
		return
	}

	for _, bp := range persisted {
		r.byFile[bp.File] = append(r.byFile[bp.File], bp)
		if bp.ID >= r.nextID {
			r.nextID = bp.ID + 1
		}
	}
}

// Add creates a breakpoint at (file, line). Enabled defaults to true and
// Verified to true until the adapter reports otherwise. The condition
// expression, if any, is compile-checked before the breakpoint is stored.
func (r *Registry) Add(ctx context.Context, file string, line int, opts *Options) (dap.Breakpoint, error) {
	if file == "" {
		return dap.Breakpoint{}, &errors.ValidationError{Field: "file", Message: "file path cannot be empty"}
	}
	if line <= 0 {
		return dap.Breakpoint{}, &errors.ValidationError{
			Field:      "line",
			Message:    "line must be positive",
			Suggestion: "lines are 1-based",
		}
	}

	bp := dap.Breakpoint{
		File:     file,
		Line:     line,
		Enabled:  true,
		Verified: true,
	}
	if opts != nil {
		bp.Column = opts.Column
		bp.Condition = opts.Condition
		bp.HitCondition = opts.HitCondition
		bp.LogMessage = opts.LogMessage
	}

	if err := ValidateCondition(bp.Condition); err != nil {
		return dap.Breakpoint{}, err
	}

	r.mu.Lock()
	bp.ID = r.nextID
	r.nextID++
	r.byFile[file] = append(r.byFile[file], bp)
	snapshot := r.snapshotLocked(file)
	r.mu.Unlock()

	recordMutation("add")
	r.persist(ctx)
	r.notify(ctx, file, snapshot)

	return bp, nil
}

// Toggle removes the breakpoint at exactly (file, line) if one exists,
// otherwise adds one. This add/remove pairing is the single-click toggle
// contract; Update mutates fields without removing.
func (r *Registry) Toggle(ctx context.Context, file string, line int) (dap.Breakpoint, bool, error) {
	r.mu.Lock()
	for i, bp := range r.byFile[file] {
		if bp.Line != line {
			continue
		}
		r.byFile[file] = append(r.byFile[file][:i], r.byFile[file][i+1:]...)
		if len(r.byFile[file]) == 0 {
			delete(r.byFile, file)
		}
		snapshot := r.snapshotLocked(file)
		r.mu.Unlock()

		recordMutation("toggle_remove")
		r.persist(ctx)
		r.notify(ctx, file, snapshot)
		return bp, false, nil
	}
	r.mu.Unlock()

	added, err := r.Add(ctx, file, line, nil)
	return added, true, err
}

// Update mutates fields of an existing breakpoint.
func (r *Registry) Update(ctx context.Context, id int, upd Update) (dap.Breakpoint, error) {
	if upd.Condition != nil {
		if err := ValidateCondition(*upd.Condition); err != nil {
			return dap.Breakpoint{}, err
		}
	}

	r.mu.Lock()
	file, idx, ok := r.locateLocked(id)
	if !ok {
		r.mu.Unlock()
		return dap.Breakpoint{}, &errors.NotFoundError{Resource: "breakpoint", ID: strconv.Itoa(id)}
	}

	bp := &r.byFile[file][idx]
	if upd.Enabled != nil {
		bp.Enabled = *upd.Enabled
	}
	if upd.Condition != nil {
		bp.Condition = *upd.Condition
	}
	if upd.HitCondition != nil {
		bp.HitCondition = *upd.HitCondition
	}
	if upd.LogMessage != nil {
		bp.LogMessage = *upd.LogMessage
	}
	updated := *bp
	snapshot := r.snapshotLocked(file)
	r.mu.Unlock()

	recordMutation("update")
	r.persist(ctx)
	r.notify(ctx, file, snapshot)

	return updated, nil
}

// Remove deletes a breakpoint by id.
func (r *Registry) Remove(ctx context.Context, id int) error {
	r.mu.Lock()
	file, idx, ok := r.locateLocked(id)
	if !ok {
		r.mu.Unlock()
		return &errors.NotFoundError{Resource: "breakpoint", ID: strconv.Itoa(id)}
	}

	r.byFile[file] = append(r.byFile[file][:idx], r.byFile[file][idx+1:]...)
	if len(r.byFile[file]) == 0 {
		delete(r.byFile, file)
	}
	snapshot := r.snapshotLocked(file)
	r.mu.Unlock()

	recordMutation("remove")
	r.persist(ctx)
	r.notify(ctx, file, snapshot)

	return nil
}

// Clear removes all breakpoints for a file, or every breakpoint if file is
// empty.
func (r *Registry) Clear(ctx context.Context, file string) {
	r.mu.Lock()
	var touched []string
	if file == "" {
		for f := range r.byFile {
			touched = append(touched, f)
		}
		r.byFile = make(map[string][]dap.Breakpoint)
	} else if _, ok := r.byFile[file]; ok {
		touched = append(touched, file)
		delete(r.byFile, file)
	}
	r.mu.Unlock()

	if len(touched) == 0 {
		return
	}

	recordMutation("clear")
	r.persist(ctx)
	for _, f := range touched {
		r.notify(ctx, f, nil)
	}
}

// SetVerified applies an adapter verification result to a breakpoint.
// Unknown ids are ignored: the adapter may report breakpoints this registry
// no longer owns.
func (r *Registry) SetVerified(id int, verified bool, message string) (dap.Breakpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, idx, ok := r.locateLocked(id)
	if !ok {
		return dap.Breakpoint{}, false
	}

	bp := &r.byFile[file][idx]
	bp.Verified = verified
	bp.Message = message
	return *bp, true
}

// ForFile returns the ordered breakpoint list for a file. Files with no
// breakpoints yield an empty list, never an error.
func (r *Registry) ForFile(file string) []dap.Breakpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(file)
}

// Get returns a breakpoint by id.
func (r *Registry) Get(id int) (dap.Breakpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, idx, ok := r.locateLocked(id)
	if !ok {
		return dap.Breakpoint{}, false
	}
	return r.byFile[file][idx], true
}

// Files returns every file that currently has breakpoints.
func (r *Registry) Files() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	files := make([]string, 0, len(r.byFile))
	for f := range r.byFile {
		files = append(files, f)
	}
	return files
}

// All returns every breakpoint across all files.
func (r *Registry) All() []dap.Breakpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []dap.Breakpoint
	for _, bps := range r.byFile {
		all = append(all, bps...)
	}
	return all
}

func (r *Registry) locateLocked(id int) (string, int, bool) {
	for file, bps := range r.byFile {
		for i, bp := range bps {
			if bp.ID == id {
				return file, i, true
			}
		}
	}
	return "", 0, false
}

func (r *Registry) snapshotLocked(file string) []dap.Breakpoint {
	bps := r.byFile[file]
	out := make([]dap.Breakpoint, len(bps))
	copy(out, bps)
	return out
}

// persist writes the full breakpoint set through to the store.
// Store errors are logged, not returned: the registry is authoritative.
func (r *Registry) persist(ctx context.Context) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, r.All()); err != nil {
		r.logger.Warn("failed to persist breakpoints", "error", err)
	}
}

func (r *Registry) notify(ctx context.Context, file string, bps []dap.Breakpoint) {
	r.mu.RLock()
	sink := r.sink
	r.mu.RUnlock()

	if sink != nil {
		sink(ctx, file, bps)
	}
}

