package utils

import (
	"fmt"
	"strings"
)

// DefaultMaxStringLength is the truncation length used when a caller passes a
// non-positive limit.
const DefaultMaxStringLength = 500

// TruncateString shortens s to at most maxLen bytes and appends the original
// length so log readers know content was cut.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// FirstNonEmpty returns the first argument that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
