package store

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStateData = errors.New("invalid state data")
	ErrInvalidTaskData  = errors.New("invalid task data")
)

// WriteError marks a durable-write failure. Reads never produce it; they
// degrade to defaults instead.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("persistence write failed (%s): %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func newWriteError(op string, err error) *WriteError {
	return &WriteError{Op: op, Err: err}
}
