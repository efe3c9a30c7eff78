package parsing

import (
	"fmt"

	"emperror.dev/errors"
)

// Error kinds returned by the parser. Use errors.Is to classify a failure.
const (
	ErrMalformedField     = errors.Sentinel("malformed field")
	ErrUnknownStatus      = errors.Sentinel("unknown status")
	ErrFieldCountMismatch = errors.Sentinel("field count mismatch")
)

// FieldError describes a single field that failed to parse.
type FieldError struct {
	Kind  error
	Field string
	Value string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %q", e.Kind, e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// Reason returns the short classification of err used for skip accounting.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMalformedField):
		return ErrMalformedField.Error()
	case errors.Is(err, ErrUnknownStatus):
		return ErrUnknownStatus.Error()
	case errors.Is(err, ErrFieldCountMismatch):
		return ErrFieldCountMismatch.Error()
	default:
		return "other"
	}
}
