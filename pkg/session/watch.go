package session

import (
	"strconv"
	"sync"

	"github.com/sprintloop/debugcore/pkg/dap"
	"github.com/sprintloop/debugcore/pkg/errors"
)

// watchList owns the user's watch expressions. Watches persist across
// sessions; only their results are tied to a stop event.
//
// Results carry the generation they were evaluated under: markAllUnavailable
// bumps it, so an adapter round trip that completes after a resume or stop
// writes into a retired generation and is dropped.
type watchList struct {
	mu      sync.Mutex
	nextID  int
	gen     uint64
	watches []dap.WatchExpression
}

func newWatchList() *watchList {
	return &watchList{nextID: 1}
}

// add creates a watch with no result yet.
func (w *watchList) add(expression string) dap.WatchExpression {
	w.mu.Lock()
	defer w.mu.Unlock()

	watch := dap.WatchExpression{
		ID:         w.nextID,
		Expression: expression,
		State:      dap.WatchUnavailable,
	}
	w.nextID++
	w.watches = append(w.watches, watch)
	return watch
}

// remove deletes a watch by id.
func (w *watchList) remove(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, watch := range w.watches {
		if watch.ID == id {
			w.watches = append(w.watches[:i], w.watches[i+1:]...)
			return nil
		}
	}
	return &errors.NotFoundError{Resource: "watch", ID: strconv.Itoa(id)}
}

// get returns a watch by id.
func (w *watchList) get(id int) (dap.WatchExpression, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, watch := range w.watches {
		if watch.ID == id {
			return watch, true
		}
	}
	return dap.WatchExpression{}, false
}

// all returns a copy of every watch in creation order.
func (w *watchList) all() []dap.WatchExpression {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]dap.WatchExpression, len(w.watches))
	copy(out, w.watches)
	return out
}

// generation returns the current result generation. Captured before an
// evaluation round trip and passed back with the result.
func (w *watchList) generation() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.gen
}

// setResult stores a successful evaluation, overwriting any prior result.
// Results from a retired generation are dropped.
func (w *watchList) setResult(gen uint64, id int, result dap.EvaluateResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.gen {
		return
	}
	for i := range w.watches {
		if w.watches[i].ID == id {
			w.watches[i].Value = result.Result
			w.watches[i].Type = result.Type
			w.watches[i].VariablesReference = result.VariablesReference
			w.watches[i].Err = ""
			w.watches[i].State = dap.WatchOK
			return
		}
	}
}

// setError stores a per-expression evaluation error. Errors from a retired
// generation are dropped.
func (w *watchList) setError(gen uint64, id int, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.gen {
		return
	}
	for i := range w.watches {
		if w.watches[i].ID == id {
			w.watches[i].Value = ""
			w.watches[i].Type = ""
			w.watches[i].VariablesReference = 0
			w.watches[i].Err = message
			w.watches[i].State = dap.WatchError
			return
		}
	}
}

// markUnavailable resets one watch to the no-frame state.
func (w *watchList) markUnavailable(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.watches {
		if w.watches[i].ID == id {
			clearResult(&w.watches[i])
			return
		}
	}
}

// markAllUnavailable resets every watch to the no-frame state and retires
// the current result generation. Called on every transition out of paused.
func (w *watchList) markAllUnavailable() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	for i := range w.watches {
		clearResult(&w.watches[i])
	}
}

func clearResult(watch *dap.WatchExpression) {
	watch.Value = ""
	watch.Type = ""
	watch.VariablesReference = 0
	watch.Err = ""
	watch.State = dap.WatchUnavailable
}
