package ai

// ChatRequest is the provider-agnostic input of a chat completion. The system
// prompt travels separately because providers place it differently on the
// wire (a leading message for OpenAI, a top-level field for Anthropic).
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`
	SystemPrompt     string            `json:"system_prompt,omitempty"`
	Messages         []Message         `json:"messages"`
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`
}

// Message is one turn of a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// GenerationConfig carries sampling parameters. Zero values mean "provider default".
type GenerationConfig struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"` // [0..2]
	TopP        float32 `json:"top_p,omitempty"`       // [0..1]
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse is the completed answer of a chat call. FinishReason uses the
// OpenAI vocabulary ("stop", "length", ...) for every provider.
type ChatResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

// Truncated reports whether the model stopped because it ran out of tokens.
func (r *ChatResponse) Truncated() bool {
	return r != nil && r.FinishReason == FinishReasonLength
}

// MessageRole is the author of a message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r MessageRole) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Finish reasons shared by every provider.
const (
	FinishReasonStop   = "stop"
	FinishReasonLength = "length"
)

// UserMessage and AssistantMessage are shorthands for building conversations.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
