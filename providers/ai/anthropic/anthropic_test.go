package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leofalp/antitok/providers/ai"
)

func newTestProvider(serverURL string) *AnthropicProvider {
	provider := New()
	provider.WithBaseURL(serverURL)
	provider.WithAPIKey("test-key")
	return provider
}

func TestNew_DefaultsAndEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("ANTHROPIC_API_BASE_URL", "")

	provider := New()
	if provider.apiKey != "env-key" {
		t.Errorf("expected env key, got %q", provider.apiKey)
	}
	if provider.baseURL != defaultBaseURL {
		t.Errorf("expected default base URL, got %q", provider.baseURL)
	}
	if provider.Name() != "anthropic" {
		t.Errorf("expected name anthropic, got %q", provider.Name())
	}
}

func TestSendMessage_MissingAPIKey(t *testing.T) {
	provider := New()
	provider.WithAPIKey("")
	if _, err := provider.SendMessage(context.Background(), ai.ChatRequest{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestSendMessage_HeadersAndBody(t *testing.T) {
	var captured messagesRequest
	var apiKey, version, auth, path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("x-api-key")
		version = r.Header.Get("anthropic-version")
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-opus-20240229","content":[{"type":"text","text":"{\"plan\":"},{"type":"text","text":"\"x\"}"}],"stop_reason":"end_turn","usage":{"input_tokens":20,"output_tokens":7}}`)
	}))
	defer server.Close()

	response, err := newTestProvider(server.URL).SendMessage(context.Background(), ai.ChatRequest{
		Model:        "claude-3-opus-20240229",
		SystemPrompt: "You are an interviewer.",
		Messages: []ai.Message{
			ai.UserMessage("first"),
			ai.UserMessage("second"),
			ai.AssistantMessage("reply"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if apiKey != "test-key" || version != anthropicVersion {
		t.Errorf("expected x-api-key and version headers, got %q / %q", apiKey, version)
	}
	if auth != "" {
		t.Errorf("expected no Authorization header, got %q", auth)
	}
	if path != messagesEndpoint {
		t.Errorf("expected path %q, got %q", messagesEndpoint, path)
	}
	if captured.System != "You are an interviewer." {
		t.Errorf("expected top-level system prompt, got %q", captured.System)
	}
	if captured.MaxTokens != defaultMaxTokens {
		t.Errorf("expected default max_tokens, got %d", captured.MaxTokens)
	}

	wantMessages := []wireMessage{
		{Role: "user", Content: []contentBlock{{Type: "text", Text: "first"}, {Type: "text", Text: "second"}}},
		{Role: "assistant", Content: []contentBlock{{Type: "text", Text: "reply"}}},
	}
	if diff := cmp.Diff(wantMessages, captured.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	if response.Content != `{"plan":"x"}` {
		t.Errorf("expected joined text blocks, got %q", response.Content)
	}
	if response.FinishReason != ai.FinishReasonStop {
		t.Errorf("expected stop, got %q", response.FinishReason)
	}
	if response.Usage.TotalTokens != 27 {
		t.Errorf("expected 27 total tokens, got %d", response.Usage.TotalTokens)
	}
}

func TestRequestToAnthropic_SystemMessagesAndConfig(t *testing.T) {
	out := requestToAnthropic(ai.ChatRequest{
		SystemPrompt: "base",
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: "extra"},
			ai.UserMessage("hi"),
		},
		GenerationConfig: &ai.GenerationConfig{MaxTokens: 1000, Temperature: 0.5},
	})

	if out.System != "base\n\nextra" {
		t.Errorf("expected system messages folded into system, got %q", out.System)
	}
	if len(out.Messages) != 1 {
		t.Errorf("expected one wire message, got %d", len(out.Messages))
	}
	if out.MaxTokens != 1000 {
		t.Errorf("expected max_tokens 1000, got %d", out.MaxTokens)
	}
	if out.Temperature == nil || *out.Temperature != 0.5 {
		t.Errorf("expected temperature 0.5, got %v", out.Temperature)
	}
}

func TestMapStopReason(t *testing.T) {
	tests := map[string]string{
		"end_turn":      "stop",
		"stop_sequence": "stop",
		"max_tokens":    "length",
		"":              "stop",
	}
	for input, want := range tests {
		if got := mapStopReason(input); got != want {
			t.Errorf("mapStopReason(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSendMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529)
		fmt.Fprint(w, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).SendMessage(context.Background(), ai.ChatRequest{})
	if err == nil || !strings.Contains(err.Error(), "529") {
		t.Errorf("expected 529 in error, got %v", err)
	}
}
