package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse means the AI gateway returned text that could not
// be parsed into the expected structure. Callers degrade to an empty
// patch or fallback forecast instead of surfacing it destructively.
var ErrMalformedResponse = errors.New("malformed model response")

// ErrUnknownCategory means a category value does not belong to the
// closed set. It is non-fatal: the offending value is ignored.
var ErrUnknownCategory = errors.New("unknown category")

// ErrNotFound means the referenced record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports user-entered data that violates an invariant.
// It blocks the offending submission and nothing else.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
