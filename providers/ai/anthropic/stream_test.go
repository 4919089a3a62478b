package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leofalp/antitok/providers/ai"
)

// writeEvent writes a named SSE event and flushes it.
func writeEvent(writer http.ResponseWriter, name, data string) {
	fmt.Fprintf(writer, "event: %s\ndata: %s\n\n", name, data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func textDelta(text string) string {
	encoded, _ := json.Marshal(text)
	return fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%s}}`, encoded)
}

func TestStreamMessage_Lifecycle(t *testing.T) {
	var stream bool
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body messagesRequest
		_ = json.NewDecoder(request.Body).Decode(&body)
		stream = body.Stream

		writer.Header().Set("Content-Type", "text/event-stream")
		writeEvent(writer, "message_start", `{"type":"message_start","message":{"id":"msg_1","model":"claude","content":[],"usage":{"input_tokens":25,"output_tokens":1}}}`)
		writeEvent(writer, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		writeEvent(writer, "ping", `{"type":"ping"}`)
		writeEvent(writer, "content_block_delta", textDelta(`{"id":"1","tit`))
		writeEvent(writer, "content_block_delta", textDelta("le\":\"A\"}\n"))
		writeEvent(writer, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		writeEvent(writer, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"max_tokens"},"usage":{"output_tokens":15}}`)
		writeEvent(writer, "message_stop", `{"type":"message_stop"}`)
	}))
	defer server.Close()

	chatStream, err := newTestProvider(server.URL).StreamMessage(context.Background(), ai.ChatRequest{Model: "claude"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	response, err := chatStream.Collect()
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	if !stream {
		t.Error("expected stream=true in request body")
	}
	if response.Content != "{\"id\":\"1\",\"title\":\"A\"}\n" {
		t.Errorf("unexpected content %q", response.Content)
	}
	if response.FinishReason != ai.FinishReasonLength {
		t.Errorf("expected length, got %q", response.FinishReason)
	}
	if response.Usage == nil || response.Usage.PromptTokens != 25 || response.Usage.CompletionTokens != 15 || response.Usage.TotalTokens != 40 {
		t.Errorf("unexpected usage %+v", response.Usage)
	}
}

func TestStreamMessage_ErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEvent(writer, "content_block_delta", textDelta("partial"))
		writeEvent(writer, "error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	}))
	defer server.Close()

	chatStream, err := newTestProvider(server.URL).StreamMessage(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	response, err := chatStream.Collect()
	if !errors.Is(err, ErrStream) {
		t.Fatalf("expected ErrStream, got %v", err)
	}
	if !strings.Contains(err.Error(), "overloaded_error") {
		t.Errorf("expected error type in message, got %v", err)
	}
	if response.Content != "partial" {
		t.Errorf("expected partial content, got %q", response.Content)
	}
}

func TestStreamMessage_PreStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(writer, `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens: required"}}`)
	}))
	defer server.Close()

	if _, err := newTestProvider(server.URL).StreamMessage(context.Background(), ai.ChatRequest{}); err == nil {
		t.Fatal("expected pre-stream error")
	}
}

func TestStreamMessage_TextStopsAtMessageStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeEvent(writer, "content_block_delta", textDelta("a"))
		writeEvent(writer, "message_stop", `{"type":"message_stop"}`)
		writeEvent(writer, "content_block_delta", textDelta("ignored"))
	}))
	defer server.Close()

	chatStream, err := newTestProvider(server.URL).StreamMessage(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var chunks []string
	for chunk, err := range chatStream.Text() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) != 1 || chunks[0] != "a" {
		t.Errorf("expected [a], got %v", chunks)
	}
}
