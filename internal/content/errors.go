package content

import "errors"

var (
	// ErrEmptyResponse means the model answered but nothing usable came out.
	ErrEmptyResponse = errors.New("content: empty response from model")

	// ErrInvalidRequest is matched by every RequestError.
	ErrInvalidRequest = errors.New("content: invalid request")

	ErrNilClient = errors.New("content: client is nil")
)

// RequestError rejects caller input before any model call is made. Reason is
// safe to show to the caller.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string { return e.Reason }

func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

func invalid(reason string) error {
	return &RequestError{Reason: reason}
}
