// Package exit turns command outcomes into a message, a destination and
// a process exit code.
package exit

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jacoelho/jscan/internal/scan"
)

// Exit codes. NotFound is distinct from failure so scripts can tell an
// absent array from a broken document.
const (
	CodeOK        = 0
	CodeFailure   = 1
	CodeUsage     = 2
	CodeNotFound  = 3
	CodeMalformed = 4
)

// Result holds the output destination and exit code for program termination.
type Result struct {
	Output   io.Writer
	ExitCode int
	Message  string
}

// Print writes the message, if any, to the configured output.
func (r *Result) Print() {
	if r.Message == "" {
		return
	}
	fmt.Fprint(r.Output, r.Message)
}

func Success(message string) *Result {
	return &Result{
		Output:   os.Stdout,
		ExitCode: CodeOK,
		Message:  message,
	}
}

// Error reports a runtime failure on stderr.
func Error(message string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: CodeFailure,
		Message:  message,
	}
}

func Errorf(format string, a ...any) *Result {
	return Error(fmt.Sprintf(format, a...))
}

// Usagef reports bad arguments.
func Usagef(format string, a ...any) *Result {
	r := Errorf(format, a...)
	r.ExitCode = CodeUsage
	return r
}

// NotFound reports that no source contained the target array.
func NotFound(target string) *Result {
	return &Result{
		Output:   os.Stderr,
		ExitCode: CodeNotFound,
		Message:  fmt.Sprintf("array %q not found\n", target),
	}
}

// FromError maps err to a Result; nil maps to a silent success.
func FromError(err error) *Result {
	switch {
	case err == nil:
		return Success("")
	case errors.Is(err, scan.ErrMalformed), errors.Is(err, scan.ErrTooDeep):
		r := Errorf("Error: %v\n", err)
		r.ExitCode = CodeMalformed
		return r
	default:
		return Errorf("Error: %v\n", err)
	}
}
