package breakpoints

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/sprintloop/debugcore/pkg/errors"
)

// compiled caches successfully compiled condition expressions so repeated
// adds/updates of the same condition skip recompilation.
var compiled = struct {
	mu    sync.RWMutex
	progs map[string]*vm.Program
}{progs: make(map[string]*vm.Program)}

// ValidateCondition compile-checks a breakpoint condition expression.
// An empty condition is always valid (the breakpoint is unconditional).
//
// The adapter remains the authority on what the condition means at bind
// time; this check only rejects expressions that cannot parse, so the user
// hears about a typo when setting the breakpoint rather than when it is
// silently never hit.
func ValidateCondition(condition string) error {
	if condition == "" {
		return nil
	}

	compiled.mu.RLock()
	_, ok := compiled.progs[condition]
	compiled.mu.RUnlock()
	if ok {
		return nil
	}

	prog, err := expr.Compile(condition, expr.AllowUndefinedVariables())
	if err != nil {
		return &errors.ValidationError{
			Field:      "condition",
			Message:    fmt.Sprintf("failed to compile condition: %s", err.Error()),
			Suggestion: "check the expression syntax",
		}
	}

	compiled.mu.Lock()
	compiled.progs[condition] = prog
	compiled.mu.Unlock()

	return nil
}
