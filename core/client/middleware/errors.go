package middleware

import "errors"

// ErrRetryExhausted wraps the last provider error once every retry failed,
// so both can be matched with errors.Is.
var ErrRetryExhausted = errors.New("antitok: all retry attempts exhausted")
