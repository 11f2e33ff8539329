package core

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired means an operation needs a subject identity and none
	// is available (no valid session, no explicit parameter).
	ErrAuthRequired = errors.New("authentication required")

	// ErrValidation means a required request parameter is missing or invalid.
	ErrValidation = errors.New("validation failed")

	// ErrMalformedResponse means the upstream body could not be parsed.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// UpstreamError is a non-success envelope or transport failure from the
// external provider. Message carries the upstream's own error text when the
// envelope included one.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream %s: %s", e.Operation, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("upstream %s: status %d", e.Operation, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstreamError reports whether err is (or wraps) an UpstreamError.
func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
