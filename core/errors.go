package core

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrUnreachable is returned when the backend could not be reached at all.
var ErrUnreachable = errors.New("service unreachable")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FieldMap indexes the field errors by field name, for inline form rendering.
func (err ValidationError) FieldMap() map[string]string {
	flds := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		flds[fErr.Field] = fErr.Error
	}
	return flds
}

// RemoteError is a request the backend answered with a non-2xx status.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string // backend-provided, may be empty
}

func (err RemoteError) Error() string {
	if err.Message != "" {
		return fmt.Sprintf("%s: %d %s", err.Op, err.StatusCode, err.Message)
	}
	return fmt.Sprintf("%s: %d %s", err.Op, err.StatusCode, http.StatusText(err.StatusCode))
}

// IsUnauthorized reports if err comes from a backend 401.
func IsUnauthorized(err error) bool {
	rErr, ok := errors.Cause(err).(*RemoteError)
	return ok && rErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports if err comes from a backend 404.
func IsNotFound(err error) bool {
	rErr, ok := errors.Cause(err).(*RemoteError)
	return ok && rErr.StatusCode == http.StatusNotFound
}

// IsUnreachable reports if err is a transport failure.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// ErrorMessage returns the message a user should see for err:
// the backend-provided message when there is one, fallback otherwise.
func ErrorMessage(err error, fallback string) string {
	switch origErr := errors.Cause(err).(type) {
	case *RemoteError:
		if origErr.Message != "" {
			return origErr.Message
		}
	case *ValidationError:
		if msg := origErr.Error(); msg != "" {
			return msg
		}
	}
	return fallback
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
