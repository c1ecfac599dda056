package core

import "github.com/pkg/errors"

// FieldError ties a validation failure to the field (or dot-path) it concerns.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries per-field failures alongside an optional wrapping
// error; transport layers render Fields as a field -> message map.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) > 0 {
		return err.Fields[0].Error
	}
	return ""
}

// shutdown signals that the application cannot continue and should stop
// gracefully; the HTTP error handler watches for it.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string { return s.message }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
