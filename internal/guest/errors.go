package guest

import (
	"errors"
	"fmt"
)

// ValidationError reports bad caller input. It is never retried and never
// touches cached state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a guest id that is absent or inactive.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("guest %s not found", e.ID)
}

// DataSourceError wraps a repository failure. Retryable by default.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("guest data source: %s: %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a missing-guest failure.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
