package extract

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedRecord is wrapped by MalformedSpan.Err.
var ErrMalformedRecord = errors.New("extract: malformed record")

// Record is one JSON object taken from the buffer. Raw holds the bytes that
// were parsed (after repair, when enabled); Fields is the decoded object.
type Record struct {
	Raw    json.RawMessage
	Fields map[string]any
}

// String returns the field as a string, or "" when it is missing or not a
// string.
func (r Record) String(key string) string {
	s, _ := r.Fields[key].(string)
	return s
}

// Decode unmarshals the record into T.
func Decode[T any](r Record) (T, error) {
	var v T
	if err := json.Unmarshal(r.Raw, &v); err != nil {
		return v, fmt.Errorf("decoding record into %T: %w", v, err)
	}
	return v, nil
}

// MalformedSpan is a brace-balanced span that did not parse. Offset is the
// byte position of its opening brace: within the buffer for Extract, within
// everything written so far for Stream.
type MalformedSpan struct {
	Offset int
	Text   string
	Err    error
}

func (m MalformedSpan) Error() string {
	return fmt.Sprintf("offset %d: %v", m.Offset, m.Err)
}

func (m MalformedSpan) Unwrap() error { return m.Err }
