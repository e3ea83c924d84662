package domain

import (
	"errors"
	"fmt"
)

// TransientError reports a request that kept failing for reasons a retry
// could have fixed (timeouts, connection resets, 5xx) until the attempt
// budget ran out. Callers decide whether to skip the unit of work or abort.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError reports a request the service answered definitively in the
// negative: a 4xx status, or a body that does not decode. Retrying would
// get the same answer.
type PermanentError struct {
	Status int // HTTP status when the rejection was status-driven, else 0
	Err    error
}

func (e *PermanentError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("rejected with status %d: %v", e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("rejected with status %d", e.Status)
	default:
		return fmt.Sprintf("unusable response: %v", e.Err)
	}
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err wraps a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsPermanent reports whether err wraps a PermanentError.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
