package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/brushline/pkg/job"
)

// DefaultTimeout bounds a single evaluation unless WithTimeout overrides it.
const DefaultTimeout = 5 * time.Second

// Fatal evaluation outcomes.
var (
	ErrTimeout    = errors.New("evaluation timed out")
	ErrSuperseded = errors.New("evaluation superseded by a newer one")
)

// evalResult carries one evaluation back from its goroutine.
type evalResult struct {
	job    *job.Job
	errors []EvalError
	err    error
}

// begin opens a new generation. Results of older generations are dropped.
func (e *Engine) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

func (e *Engine) latest(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// spawn runs fn on its own goroutine, turning a panic into a fatal result.
func spawn(fn func() evalResult) <-chan evalResult {
	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		ch <- fn()
	}()
	return ch
}

// await blocks until generation gen reports or the engine timeout passes.
// A timed out goroutine is left running and whatever it sends is ignored.
func (e *Engine) await(gen uint64, ch <-chan evalResult) (*job.Job, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.latest(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.job, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
