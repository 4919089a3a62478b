package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/observability"
)

// ErrStream wraps "error" events sent by the API after streaming started.
var ErrStream = errors.New("anthropic: stream error")

// StreamMessage sends the request with stream=true. Input tokens arrive on
// message_start and output tokens on message_delta, so one usage event is
// emitted at message_delta followed by done at message_stop.
func (p *AnthropicProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	p.annotate(ctx, request, true)

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body := requestToAnthropic(request)
	body.Stream = true

	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL+messagesEndpoint, "", body, p.headers()...)
	if err != nil {
		if observer := observability.ObserverFromContext(ctx); observer != nil {
			observer.Trace(ctx, "anthropic stream request failed", observability.Error(err))
		}
		return nil, err
	}

	scanner := utils.NewSSEScanner(httpResponse.Body)

	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

		inputTokens := 0
		stopReason := ""

		for {
			if err := ctx.Err(); err != nil {
				yield(ai.StreamEvent{}, err)
				return
			}

			payload, err := scanner.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("anthropic: reading stream: %w", err))
				return
			}

			var event streamEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("anthropic: decoding event %q: %w", utils.TruncateString(payload, 200), err))
				return
			}

			switch event.Type {
			case "message_start":
				if event.Message != nil {
					inputTokens = event.Message.Usage.InputTokens
				}

			case "content_block_delta":
				if event.Delta == nil || event.Delta.Type != "text_delta" || event.Delta.Text == "" {
					continue
				}
				if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: event.Delta.Text}, nil) {
					return
				}

			case "message_delta":
				outputTokens := 0
				if event.Usage != nil {
					outputTokens = event.Usage.OutputTokens
				}
				if event.Delta != nil && event.Delta.StopReason != "" {
					stopReason = event.Delta.StopReason
				}
				usage := &ai.Usage{
					PromptTokens:     inputTokens,
					CompletionTokens: outputTokens,
					TotalTokens:      inputTokens + outputTokens,
				}
				if !yield(ai.StreamEvent{Type: ai.StreamEventUsage, Usage: usage}, nil) {
					return
				}

			case "message_stop":
				yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: mapStopReason(stopReason)}, nil)
				return

			case "error":
				message := "unknown error"
				if event.Error != nil {
					message = event.Error.Type + ": " + event.Error.Message
				}
				yield(ai.StreamEvent{}, fmt.Errorf("%w: %s", ErrStream, message))
				return

			default:
				// ping, content_block_start/stop and future event types
			}
		}
	}), nil
}
