package prompt

import (
	"embed"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Name identifies an embedded template.
type Name string

const (
	Discover    Name = "discover"
	Feed        Name = "feed"
	Explanation Name = "explanation"
	Generate    Name = "generate"
	Interview   Name = "interview"
	Learn       Name = "learn"
	Topic       Name = "topic"
	Similar     Name = "similar"
)

// ErrUnknownTemplate is returned by Get for a name with no template.
var ErrUnknownTemplate = errors.New("prompt: unknown template")

//go:embed templates/*.md
var files embed.FS

// Names lists every available template, sorted.
func Names() []Name {
	entries, err := files.ReadDir("templates")
	if err != nil {
		return nil
	}
	names := make([]Name, 0, len(entries))
	for _, entry := range entries {
		names = append(names, Name(strings.TrimSuffix(entry.Name(), ".md")))
	}
	slices.Sort(names)
	return names
}

// Get loads the named template and applies Format.
func Get(name Name, replacements map[string]string) (string, error) {
	raw, err := files.ReadFile("templates/" + string(name) + ".md")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return Format(strings.TrimSpace(string(raw)), replacements), nil
}

// Format replaces every {key} in template with its value. Placeholders
// without a replacement are left as they are, so JSON examples survive.
// Substituted values are not scanned again.
func Format(template string, replacements map[string]string) string {
	if len(replacements) == 0 {
		return template
	}
	pairs := make([]string, 0, len(replacements)*2)
	for key, value := range replacements {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// HistorySection renders the "do not repeat" block appended to the feed,
// discover and learn rules. It is empty when there is nothing to exclude.
func HistorySection(titles []string) string {
	var b strings.Builder
	for _, title := range titles {
		if title = strings.TrimSpace(title); title == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("\nIMPORTANT: Do NOT generate facts with these titles, as they've already been shown to the user:")
		}
		fmt.Fprintf(&b, "\n- %q", title)
	}
	return b.String()
}

// ThemeSection renders the first discover rule: stick to theme, or cover a
// variety of fields when theme is blank.
func ThemeSection(theme string) string {
	if theme = strings.TrimSpace(theme); theme == "" {
		return "**Cover a variety of fields**, such as astrophysics, quantum theory, evolution, neuroscience, ancient biology, etc."
	}
	return fmt.Sprintf("**Stay within the theme %q**: every fact must clearly belong to it, but vary the angle and sub-field.", theme)
}
