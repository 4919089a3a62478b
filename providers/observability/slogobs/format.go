package slogobs

import (
	"os"
	"strings"
)

// Format selects how the Handler renders a record.
type Format string

const (
	// FormatCompact renders one line per record with attributes as a JSON
	// object: 2025-11-03 10:40:35  INFO feed streamed → {"content.count":5}
	FormatCompact Format = "compact"

	// FormatPretty renders the attributes one per line under the message.
	FormatPretty Format = "pretty"

	// FormatJSON renders the whole record as a JSON object, for log shippers.
	FormatJSON Format = "json"
)

// ParseFormat maps a case-insensitive name to a Format. Unknown names fall
// back to FormatCompact.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPretty:
		return FormatPretty
	case FormatJSON:
		return FormatJSON
	default:
		return FormatCompact
	}
}

// FormatFromEnv reads ANTITOK_LOG_FORMAT, then LOG_FORMAT.
func FormatFromEnv() Format {
	for _, key := range []string{"ANTITOK_LOG_FORMAT", "LOG_FORMAT"} {
		if value := os.Getenv(key); value != "" {
			return ParseFormat(value)
		}
	}
	return FormatCompact
}

func (f Format) String() string {
	return string(f)
}
