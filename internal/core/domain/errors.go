package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrNetwork            = errors.New("network error")
	ErrUploadFailed       = errors.New("upload failed")
	ErrReportFetchFailed  = errors.New("report fetch failed")
	ErrMalformedErrorBody = errors.New("malformed error body")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrCanceled           = errors.New("request canceled")

	ErrNoFile         = errors.New("no file selected")
	ErrUploadInFlight = errors.New("upload already in progress")
	ErrSuperseded     = errors.New("upload superseded by a newer attempt")
	ErrNoResults      = errors.New("no reconciliation results in session")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// TransportError is the uniform shape every backend failure is recovered into.
// Error returns the user-facing message only.
type TransportError struct {
	Kind       error
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "transport error"
}

func (e *TransportError) Is(target error) bool {
	return e != nil && e.Kind != nil && target == e.Kind
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UserMessage extracts the message shown to the user for any error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Error()
	}
	return err.Error()
}
