package breakpoints

import (
	"context"
	"sync"

	"github.com/sprintloop/debugcore/pkg/dap"
)

// Store defines the interface for breakpoint persistence.
// The registry writes the full set through on every mutation; Load is called
// once at construction.
type Store interface {
	// Load returns all persisted breakpoints.
	Load(ctx context.Context) ([]dap.Breakpoint, error)

	// Save replaces the persisted set with the given breakpoints.
	Save(ctx context.Context, bps []dap.Breakpoint) error
}

// MemoryStore is an in-memory implementation of Store.
// It is thread-safe and suitable for testing or sessions that should not
// persist breakpoints across restarts.
type MemoryStore struct {
	mu  sync.RWMutex
	bps []dap.Breakpoint
}

// NewMemoryStore creates a new in-memory breakpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns all persisted breakpoints.
func (s *MemoryStore) Load(ctx context.Context) ([]dap.Breakpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dap.Breakpoint, len(s.bps))
	copy(out, s.bps)
	return out, nil
}

// Save replaces the persisted set with the given breakpoints.
func (s *MemoryStore) Save(ctx context.Context, bps []dap.Breakpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bps = make([]dap.Breakpoint, len(bps))
	copy(s.bps, bps)
	return nil
}
