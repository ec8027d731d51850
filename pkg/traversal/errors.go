package traversal

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyRunning = errors.New("traversal is already running")
	ErrNoQueueNext    = errors.New("traversal has no queue next function")
)

// TraversalError reports a failure raised while processing an item. The
// run that produced it was aborted.
type TraversalError struct {
	Op         string // Stage that failed (e.g., "step_action", "queue_next")
	Trace      string // Name of the traversal
	StepNumber int    // Step number of the item being processed
	Cause      error
}

func (e *TraversalError) Error() string {
	if e.Trace != "" {
		return fmt.Sprintf("%s %s at step %d: %v", e.Trace, e.Op, e.StepNumber, e.Cause)
	}
	return fmt.Sprintf("traversal %s at step %d: %v", e.Op, e.StepNumber, e.Cause)
}

func (e *TraversalError) Unwrap() error {
	return e.Cause
}

func wrapError(op, trace string, ctx *StepContext, err error) error {
	var existing *TraversalError
	if errors.As(err, &existing) {
		return err
	}
	return &TraversalError{Op: op, Trace: trace, StepNumber: ctx.StepNumber, Cause: err}
}
