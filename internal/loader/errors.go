package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrAborted is returned by WaitForExit when the loader ended Aborted.
	ErrAborted = errors.New("loader was aborted")
	// ErrTimeout is returned by WaitForExit when the wait budget elapsed first.
	ErrTimeout = errors.New("timed out waiting for loader")
	// ErrUnknown is returned by WaitForExit when the loader failed without an error.
	ErrUnknown = errors.New("loader failed with no error")
)

// ChildFailedError is recorded on a combo when one of its children failed
// without carrying an error of its own.
type ChildFailedError struct {
	Child string
}

func (e *ChildFailedError) Error() string {
	return fmt.Sprintf("%s failed", e.Child)
}

// PanicError wraps a value recovered from a panicking task delegate.
type PanicError struct {
	Task  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %q panicked: %v", e.Task, e.Value)
}
