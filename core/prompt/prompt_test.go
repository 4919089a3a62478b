package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name         string
		template     string
		replacements map[string]string
		want         string
	}{
		{"every occurrence", "{a} and {a}", map[string]string{"a": "x"}, "x and x"},
		{"unknown left alone", `{a} {"id": "1"} {b}`, map[string]string{"a": "x"}, `x {"id": "1"} {b}`},
		{"no replacements", "{a}", nil, "{a}"},
		{"values not rescanned", "{a}{b}", map[string]string{"a": "{b}", "b": "y"}, "{b}y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.template, tt.replacements); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGet_AllTemplatesLoad(t *testing.T) {
	want := []Name{Discover, Explanation, Feed, Generate, Interview, Learn, Similar, Topic}
	if diff := cmp.Diff(want, Names()); diff != "" {
		t.Fatalf("template names mismatch (-want +got):\n%s", diff)
	}

	for _, name := range want {
		got, err := Get(name, nil)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if got == "" || got != strings.TrimSpace(got) {
			t.Errorf("%s: expected trimmed, non-empty template", name)
		}
	}
}

func TestGet_Feed(t *testing.T) {
	got, err := Get(Feed, map[string]string{
		"language":       "Ukrainian",
		"historySection": HistorySection([]string{"Octopus hearts"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(got, "You MUST respond in Ukrainian.") {
		t.Errorf("expected language at the end, got %q", got[len(got)-40:])
	}
	if !strings.Contains(got, `- "Octopus hearts"`) {
		t.Error("expected history entry in prompt")
	}
	if !strings.Contains(got, `{"id": "1", "category": "Category name"`) {
		t.Error("expected JSON example to survive formatting")
	}
	if strings.Contains(got, "{historySection}") || strings.Contains(got, "{language}") {
		t.Error("expected all known placeholders replaced")
	}
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("nope", nil)
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestHistorySection(t *testing.T) {
	if got := HistorySection(nil); got != "" {
		t.Errorf("expected empty section, got %q", got)
	}
	if got := HistorySection([]string{" ", ""}); got != "" {
		t.Errorf("expected blank titles ignored, got %q", got)
	}

	got := HistorySection([]string{"A", "B \"quoted\""})
	want := "\nIMPORTANT: Do NOT generate facts with these titles, as they've already been shown to the user:\n- \"A\"\n- \"B \\\"quoted\\\"\""
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestThemeSection(t *testing.T) {
	if got := ThemeSection("  "); !strings.Contains(got, "variety of fields") {
		t.Errorf("expected variety rule without theme, got %q", got)
	}
	if got := ThemeSection("Space"); !strings.Contains(got, `"Space"`) {
		t.Errorf("expected theme named in rule, got %q", got)
	}
}
