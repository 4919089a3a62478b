package parse

import "strings"

// CleanJSONResponse strips a surrounding Markdown code fence (```json or a
// bare ```) and trims whitespace. Models often fence JSON even when told not to.
func CleanJSONResponse(content string) string {
	cleaned := strings.TrimSpace(content)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "```")
	if newline := strings.IndexByte(cleaned, '\n'); newline >= 0 {
		// drop the language tag line, e.g. "json"
		if tag := strings.TrimSpace(cleaned[:newline]); !strings.ContainsAny(tag, "{[") {
			cleaned = cleaned[newline+1:]
		}
	}
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
