package engine

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("engine already running")

// EpicError records an epic that terminated with an error. The epic is
// detached from the engine; the other epics keep running.
type EpicError struct {
	// Epic is the registered name of the failed epic.
	Epic string

	// Seq is the last sequence number reduced before the failure was seen.
	Seq int64

	Err error
}

// Error implements the error interface.
func (e *EpicError) Error() string {
	return fmt.Sprintf("epic %s terminated after seq %d: %v", e.Epic, e.Seq, e.Err)
}

func (e *EpicError) Unwrap() error {
	return e.Err
}
