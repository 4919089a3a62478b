package anthropic

import (
	"strings"

	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/ai"
)

func requestToAnthropic(request ai.ChatRequest) messagesRequest {
	var system []string
	if request.SystemPrompt != "" {
		system = append(system, request.SystemPrompt)
	}

	out := messagesRequest{
		Model:     request.Model,
		MaxTokens: defaultMaxTokens,
	}

	for _, message := range request.Messages {
		if message.Role == ai.RoleSystem {
			system = append(system, message.Content)
			continue
		}
		out.Messages = appendMessage(out.Messages, string(message.Role), message.Content)
	}
	out.System = strings.Join(system, "\n\n")

	if config := request.GenerationConfig; config != nil {
		if config.MaxTokens > 0 {
			out.MaxTokens = config.MaxTokens
		}
		if config.Temperature > 0 {
			out.Temperature = utils.Ptr(float64(config.Temperature))
		}
		if config.TopP > 0 {
			out.TopP = utils.Ptr(float64(config.TopP))
		}
	}
	return out
}

// appendMessage merges consecutive turns of the same role into one message,
// since the API requires user and assistant turns to alternate.
func appendMessage(messages []wireMessage, role, text string) []wireMessage {
	block := contentBlock{Type: "text", Text: text}
	if n := len(messages); n > 0 && messages[n-1].Role == role {
		messages[n-1].Content = append(messages[n-1].Content, block)
		return messages
	}
	return append(messages, wireMessage{Role: role, Content: []contentBlock{block}})
}

func responseToGeneric(resp *messagesResponse) *ai.ChatResponse {
	var text []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = append(text, block.Text)
		}
	}

	return &ai.ChatResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      strings.Join(text, ""),
		FinishReason: mapStopReason(resp.StopReason),
		Usage: &ai.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}

// mapStopReason converts stop_reason to the OpenAI style finish reason.
func mapStopReason(stopReason string) string {
	if stopReason == "max_tokens" {
		return ai.FinishReasonLength
	}
	return ai.FinishReasonStop
}
