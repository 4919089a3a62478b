package ai

import (
	"iter"
	"strings"
)

// StreamEventType identifies the payload of a StreamEvent.
type StreamEventType string

const (
	StreamEventContent StreamEventType = "content"
	StreamEventUsage   StreamEventType = "usage"
	StreamEventDone    StreamEventType = "done"
)

// StreamEvent is a single delta. Exactly one payload field is set, matching Type.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Content      string          `json:"content,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// ChatStream wraps the iterator produced by a StreamProvider.
//
// A stream must be consumed, by ranging over Iter or Text (breaking early is
// fine) or by calling Collect. Providers release the HTTP body only when the
// iterator returns.
type ChatStream struct {
	iterator iter.Seq2[StreamEvent, error]
}

// NewChatStream wraps a raw iterator. A non-nil error yielded by the iterator
// ends the stream.
func NewChatStream(iterator iter.Seq2[StreamEvent, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewSingleEventStream replays a finished response as content, usage and done
// events, for providers without streaming support.
func NewSingleEventStream(response *ChatResponse) *ChatStream {
	return NewChatStream(func(yield func(StreamEvent, error) bool) {
		if response.Content != "" {
			if !yield(StreamEvent{Type: StreamEventContent, Content: response.Content}, nil) {
				return
			}
		}
		if response.Usage != nil {
			if !yield(StreamEvent{Type: StreamEventUsage, Usage: response.Usage}, nil) {
				return
			}
		}
		yield(StreamEvent{Type: StreamEventDone, FinishReason: response.FinishReason}, nil)
	})
}

// Iter returns every event, usage and done included.
func (stream *ChatStream) Iter() iter.Seq2[StreamEvent, error] {
	return stream.iterator
}

// Text returns only the non-empty content deltas, in arrival order. Usage and
// done events are dropped; errors are passed through and end the sequence.
//
//	for chunk, err := range stream.Text() {
//	    if err != nil { ... }
//	    records := extractor.Write(chunk)
//	}
func (stream *ChatStream) Text() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for event, err := range stream.iterator {
			if err != nil {
				yield("", err)
				return
			}
			if event.Type != StreamEventContent || event.Content == "" {
				continue
			}
			if !yield(event.Content, nil) {
				return
			}
		}
	}
}

// Collect drains the stream into a ChatResponse. On a mid-stream error the
// partial response is returned together with the error.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	accumulated := &ChatResponse{}
	var content strings.Builder

	for event, err := range stream.iterator {
		if err != nil {
			accumulated.Content = content.String()
			return accumulated, err
		}

		switch event.Type {
		case StreamEventContent:
			content.WriteString(event.Content)
		case StreamEventUsage:
			if event.Usage != nil {
				accumulated.Usage = event.Usage
			}
		case StreamEventDone:
			accumulated.FinishReason = event.FinishReason
		}
	}

	accumulated.Content = content.String()
	return accumulated, nil
}
