package cmd

import "github.com/harrison/benchdoc/internal/formatter"

// ExitCode maps a command error to the process exit status: the formatter's
// own exit code when it failed, 1 for anything else, 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code := formatter.ExitCodeOf(err); code > 0 {
		return code
	}
	return 1
}
