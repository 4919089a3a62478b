package anthropic

// Wire types for POST /messages.

type messagesRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type wireMessage struct {
	Role    string         `json:"role"` // "user" or "assistant"
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      wireUsage      `json:"usage"`
}

type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// streamEvent is the envelope of every SSE payload; Type says which of the
// optional fields is populated.
//
//	message_start → content_block_start → content_block_delta… →
//	content_block_stop → message_delta → message_stop
type streamEvent struct {
	Type    string            `json:"type"`
	Message *messagesResponse `json:"message,omitempty"` // message_start
	Index   int               `json:"index,omitempty"`
	Delta   *streamDelta      `json:"delta,omitempty"` // content_block_delta, message_delta
	Usage   *wireUsage        `json:"usage,omitempty"` // message_delta
	Error   *wireError        `json:"error,omitempty"` // error
}

type streamDelta struct {
	Type       string `json:"type,omitempty"` // "text_delta" on content blocks
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

type wireError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
