package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 30 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine timeout.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after
	// a newer one was started on the same engine.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// outcome carries one evaluation back from its goroutine.
type outcome struct {
	result *EvalResult
	errors []EvalError
	err    error
}

// begin starts a new generation and returns its number.
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

// await blocks until generation gen reports on ch, the timeout elapses or
// ctx is done. ch must be buffered so an abandoned goroutine can still
// deliver and exit.
func (e *Engine) await(ctx context.Context, ch <-chan outcome, gen uint64) (*EvalResult, []EvalError, error) {
	timer := time.NewTimer(e.settings.Timeout)
	defer timer.Stop()

	select {
	case o := <-ch:
		if !e.latest(gen) {
			return nil, nil, ErrSuperseded
		}
		return o.result, o.errors, o.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.settings.Timeout)
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}
