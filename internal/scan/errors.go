package scan

import (
	"errors"

	"github.com/jacoelho/jscan/internal/token"
)

var (
	// ErrMalformed indicates invalid or truncated JSON structure.
	// It is the same value as token.ErrMalformed.
	ErrMalformed = token.ErrMalformed

	// ErrTooDeep is token.ErrTooDeep: nesting beyond the configured limit.
	ErrTooDeep = token.ErrTooDeep

	// ErrUnexpectedValue indicates a mapped field holding an object or array.
	ErrUnexpectedValue = errors.New("scan: mapped field is not a scalar")

	// ErrStop may be returned by a Sink to end a scan early.
	// Scanner treats it as a clean stop, not a failure.
	ErrStop = errors.New("scan: stopped by sink")
)
