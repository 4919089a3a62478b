package openai

import (
	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/ai"
)

// requestFromGeneric puts the system prompt first, as OpenAI expects it
// among the messages.
func requestFromGeneric(request ai.ChatRequest) chatCompletionRequest {
	messages := make([]chatMessage, 0, len(request.Messages)+1)
	if request.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}
	for _, message := range request.Messages {
		messages = append(messages, chatMessage{Role: string(message.Role), Content: message.Content})
	}

	out := chatCompletionRequest{
		Model:    request.Model,
		Messages: messages,
	}
	if config := request.GenerationConfig; config != nil {
		if config.Temperature > 0 {
			out.Temperature = utils.Ptr(float64(config.Temperature))
		}
		if config.TopP > 0 {
			out.TopP = utils.Ptr(float64(config.TopP))
		}
		if config.MaxTokens > 0 {
			out.MaxTokens = utils.Ptr(config.MaxTokens)
		}
	}
	return out
}

func responseToGeneric(resp *chatCompletionResponse) *ai.ChatResponse {
	out := &ai.ChatResponse{
		ID:    resp.ID,
		Model: resp.Model,
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.FinishReason = resp.Choices[0].FinishReason
	}
	if resp.Usage != nil {
		out.Usage = usageToGeneric(resp.Usage)
	}
	return out
}

func usageToGeneric(usage *chatUsage) *ai.Usage {
	return &ai.Usage{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}
}

// chunkToEvents splits one SSE chunk into stream events. Only the first
// choice is read since n is never set above one.
func chunkToEvents(chunk *chatCompletionChunk) []ai.StreamEvent {
	var events []ai.StreamEvent

	if chunk.Usage != nil {
		events = append(events, ai.StreamEvent{Type: ai.StreamEventUsage, Usage: usageToGeneric(chunk.Usage)})
	}
	if len(chunk.Choices) == 0 {
		return events
	}

	choice := chunk.Choices[0]
	if choice.Delta.Content != nil && *choice.Delta.Content != "" {
		events = append(events, ai.StreamEvent{Type: ai.StreamEventContent, Content: *choice.Delta.Content})
	}
	if choice.FinishReason != nil && *choice.FinishReason != "" {
		events = append(events, ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: *choice.FinishReason})
	}
	return events
}
