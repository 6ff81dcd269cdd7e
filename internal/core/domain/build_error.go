package domain

import (
	"errors"
	"strconv"
)

// BuildError reports a failed build command together with the exit code the process
// should propagate.
type BuildError struct {
	ExitCode int
	Err      error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	msg := "build command exited with code " + strconv.Itoa(e.ExitCode)
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// Is makes every BuildError match ErrBuildExecutionFailed.
func (e *BuildError) Is(target error) bool {
	return target == ErrBuildExecutionFailed
}

// ExitCodeOf returns the exit code a process should terminate with for err.
// Build failures propagate the child's code when it is known; everything else maps to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var be *BuildError
	if errors.As(err, &be) && be.ExitCode > 0 {
		return be.ExitCode
	}
	return 1
}
