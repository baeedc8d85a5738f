package session

import (
	"sync"

	"github.com/sprintloop/debugcore/pkg/dap"
)

// stackCache holds the ordered stack frames produced by the most recent stop
// event. It is replaced wholesale on every stop and cleared on every resume:
// frame ids are only meaningful within a single stop event, so incremental
// patching would risk mixing ids across generations.
type stackCache struct {
	mu     sync.RWMutex
	frames []dap.StackFrame
}

func newStackCache() *stackCache {
	return &stackCache{}
}

// replace installs a fresh set of frames, discarding the previous ones.
func (s *stackCache) replace(frames []dap.StackFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = make([]dap.StackFrame, len(frames))
	copy(s.frames, frames)
}

// clear drops all frames.
func (s *stackCache) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = nil
}

// Frames returns a copy of the cached frames. Frame 0 is the innermost frame.
func (s *stackCache) Frames() []dap.StackFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dap.StackFrame, len(s.frames))
	copy(out, s.frames)
	return out
}

// contains reports whether a frame id is present in the current cache.
// It is the sole validity check for selecting a frame.
func (s *stackCache) contains(frameID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.frames {
		if f.ID == frameID {
			return true
		}
	}
	return false
}

// len returns the number of cached frames.
func (s *stackCache) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.frames)
}
