package parse

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lines decodes newline-delimited JSON, one T per non-blank line. A line that
// is not valid JSON fails the whole call, with its 1-based line number.
func Lines[T any](content string) ([]T, error) {
	var out []T
	for i, line := range strings.Split(CleanJSONResponse(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var item T
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return out, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, item)
	}
	return out, nil
}
