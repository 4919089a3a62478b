package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/observability"
)

// StreamMessage sends the request with stream=true and returns a ChatStream
// over the SSE chunks. The HTTP body is closed when the iterator returns.
func (p *OpenAIProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	p.annotate(ctx, request, true)

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body := requestFromGeneric(request)
	body.Stream = true
	body.StreamOptions = &streamOptions{IncludeUsage: true}

	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, body)
	if err != nil {
		if observer := observability.ObserverFromContext(ctx); observer != nil {
			observer.Trace(ctx, "openai stream request failed", observability.Error(err))
		}
		return nil, err
	}

	scanner := utils.NewSSEScanner(httpResponse.Body)

	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

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
				yield(ai.StreamEvent{}, fmt.Errorf("openai: reading stream: %w", err))
				return
			}

			var chunk chatCompletionChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("openai: decoding chunk %q: %w", utils.TruncateString(payload, 200), err))
				return
			}

			for _, event := range chunkToEvents(&chunk) {
				if !yield(event, nil) {
					return
				}
			}
		}
	}), nil
}
