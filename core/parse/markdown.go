package parse

import (
	"fmt"
	"regexp"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var htmlTag = regexp.MustCompile(`</?(p|br|ul|ol|li|h[1-6]|strong|em|b|i|code|pre|a|div|span|blockquote)\b[^>]*>`)

// ToMarkdown converts answers written in HTML into Markdown. Text without
// recognisable HTML tags, including Markdown itself, is returned unchanged.
func ToMarkdown(content string) (string, error) {
	if !htmlTag.MatchString(content) {
		return content, nil
	}
	markdown, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return markdown, nil
}
