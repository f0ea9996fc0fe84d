package formatter

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput indicates a target's raw results file could not be opened
	ErrMissingInput = errors.New("missing input file")

	// ErrFormatterFailed indicates the formatter could not be launched or exited non-zero
	ErrFormatterFailed = errors.New("formatter invocation failed")
)

// InputError reports an unreadable raw results file
type InputError struct {
	Target string
	Path   string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("target %s: cannot read %s: %v", e.Target, e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the underlying filesystem error
func (e *InputError) Unwrap() []error {
	return []error{ErrMissingInput, e.Err}
}

// InvocationError reports a failed formatter run for one target
type InvocationError struct {
	Target   string
	Path     string
	ExitCode int    // -1 when the process never ran or was killed
	Stderr   string // Trimmed standard error of the formatter
	Err      error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("target %s: formatter %s", e.Target, e.Path)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" exited with code %d", e.ExitCode)
	} else {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying exec error
func (e *InvocationError) Unwrap() []error {
	return []error{ErrFormatterFailed, e.Err}
}

// ExitCodeOf returns the exit code a failed formatter run should propagate to
// the caller's process. It returns 0 when err carries no formatter exit status.
func ExitCodeOf(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr.ExitCode > 0 {
		return invErr.ExitCode
	}
	return 0
}
