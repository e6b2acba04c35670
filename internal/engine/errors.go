package engine

import (
	"errors"
	"fmt"
)

// Recoverable faults: the offending intent is discarded, a warning is
// attached to the result and the loop continues.
var InvalidIntentErr = errors.New("invalid order intent")
var SizingErr = errors.New("position sizer produced a non-positive quantity")

// Fatal faults: the run aborts immediately, no partial result is returned.
var EmptyFeedErr = errors.New("bar feed is empty")
var UnorderedFeedErr = errors.New("bar feed timestamps are not in order")
var StrategyRuntimeErr = errors.New("strategy raised an error")
var ResourceExhaustedErr = errors.New("run exceeded its execution quota")

// BarError wraps a fatal error with the index of the bar at which it
// occurred.
type BarError struct {
	Index int
	Err   error
}

func (e *BarError) Error() string {
	return fmt.Sprintf("bar %d: %v", e.Index, e.Err)
}

func (e *BarError) Unwrap() error {
	return e.Err
}
