package ai

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// makeStream builds a ChatStream from fixed events; when midErr is set it is
// yielded in place of the event at errAtIndex.
func makeStream(events []StreamEvent, midErr error, errAtIndex int) *ChatStream {
	return NewChatStream(func(yield func(StreamEvent, error) bool) {
		for i, event := range events {
			if midErr != nil && i == errAtIndex {
				yield(StreamEvent{}, midErr)
				return
			}
			if !yield(event, nil) {
				return
			}
		}
	})
}

func TestNewSingleEventStream_ContentUsageDone(t *testing.T) {
	usage := &Usage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7}
	stream := NewSingleEventStream(&ChatResponse{Content: "hello", FinishReason: FinishReasonStop, Usage: usage})

	var got []StreamEvent
	for event, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, event)
	}

	want := []StreamEvent{
		{Type: StreamEventContent, Content: "hello"},
		{Type: StreamEventUsage, Usage: usage},
		{Type: StreamEventDone, FinishReason: FinishReasonStop},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSingleEventStream_EmptyResponseOnlyDone(t *testing.T) {
	count := 0
	for event := range NewSingleEventStream(&ChatResponse{}).Iter() {
		count++
		if event.Type != StreamEventDone {
			t.Errorf("expected done event, got %q", event.Type)
		}
	}
	if count != 1 {
		t.Errorf("expected 1 event, got %d", count)
	}
}

func TestChatStream_Collect(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: `{"id":"1",`},
		{Type: StreamEventContent, Content: `"title":"A"}`},
		{Type: StreamEventUsage, Usage: &Usage{TotalTokens: 9}},
		{Type: StreamEventDone, FinishReason: FinishReasonLength},
	}, nil, -1)

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != `{"id":"1","title":"A"}` {
		t.Errorf("expected joined content, got %q", response.Content)
	}
	if response.FinishReason != FinishReasonLength {
		t.Errorf("expected finish reason length, got %q", response.FinishReason)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 9 {
		t.Errorf("expected usage carried, got %+v", response.Usage)
	}
}

func TestChatStream_Collect_MidStreamErrorKeepsPartial(t *testing.T) {
	boom := errors.New("connection reset")
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: "part"},
		{Type: StreamEventContent, Content: "never"},
	}, boom, 1)

	response, err := stream.Collect()
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if response.Content != "part" {
		t.Errorf("expected partial content, got %q", response.Content)
	}
}

func TestChatStream_Text_SkipsNonContent(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: "a"},
		{Type: StreamEventContent, Content: ""},
		{Type: StreamEventUsage, Usage: &Usage{}},
		{Type: StreamEventContent, Content: "b"},
		{Type: StreamEventDone},
	}, nil, -1)

	var chunks []string
	for chunk, err := range stream.Text() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		chunks = append(chunks, chunk)
	}
	if diff := cmp.Diff([]string{"a", "b"}, chunks); diff != "" {
		t.Errorf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestChatStream_Text_PropagatesErrorAndStops(t *testing.T) {
	boom := errors.New("upstream closed")
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: "a"},
		{Type: StreamEventContent, Content: "b"},
	}, boom, 1)

	var chunks []string
	var gotErr error
	for chunk, err := range stream.Text() {
		if err != nil {
			gotErr = err
			continue
		}
		chunks = append(chunks, chunk)
	}
	if !errors.Is(gotErr, boom) {
		t.Errorf("expected %v, got %v", boom, gotErr)
	}
	if len(chunks) != 1 || chunks[0] != "a" {
		t.Errorf("expected only the chunk before the error, got %v", chunks)
	}
}

func TestChatStream_Text_EarlyBreak(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: "a"},
		{Type: StreamEventContent, Content: "b"},
	}, nil, -1)

	for chunk := range stream.Text() {
		if chunk != "a" {
			t.Errorf("expected first chunk a, got %q", chunk)
		}
		break
	}
}

func TestMessageRole_Valid(t *testing.T) {
	for _, role := range []MessageRole{RoleSystem, RoleUser, RoleAssistant} {
		if !role.Valid() {
			t.Errorf("expected %q to be valid", role)
		}
	}
	if MessageRole("tool").Valid() {
		t.Error("expected tool role to be rejected")
	}
}

func TestChatResponse_Truncated(t *testing.T) {
	var missing *ChatResponse
	if missing.Truncated() {
		t.Error("expected nil response not to be truncated")
	}
	if (&ChatResponse{FinishReason: FinishReasonStop}).Truncated() {
		t.Error("expected stop not to be truncated")
	}
	if !(&ChatResponse{FinishReason: FinishReasonLength}).Truncated() {
		t.Error("expected length to be truncated")
	}
}
