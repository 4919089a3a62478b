package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/antitok/core/client"
	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/ai"
)

// LogLevel selects how much of each call is logged.
type LogLevel int

const (
	// LogLevelMinimal logs model, duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds message count and finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the first prompt message and the answer, truncated.
	// Prompts carry user history, so keep this out of production.
	LogLevelVerbose
)

const truncateLen = 500

// NewLoggingMiddleware logs each call on logger before and after it runs.
// Stream completion is logged when the iterator finishes.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				logger.InfoContext(ctx, "llm send", requestAttrs(request, level)...)

				start := time.Now()
				response, err := next(ctx, request)
				if err != nil {
					logFailure(ctx, logger, "llm send failed", request.Model, start, err)
					return nil, err
				}

				attrs := resultAttrs(request.Model, start, response.FinishReason, response.Usage, level)
				if level >= LogLevelVerbose && response.Content != "" {
					attrs = append(attrs, slog.String("response_content", utils.TruncateString(response.Content, truncateLen)))
				}
				logger.InfoContext(ctx, "llm send completed", attrs...)
				return response, nil
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				logger.InfoContext(ctx, "llm stream", requestAttrs(request, level)...)

				start := time.Now()
				stream, err := next(ctx, request)
				if err != nil {
					logFailure(ctx, logger, "llm stream failed", request.Model, start, err)
					return nil, err
				}
				return logStream(ctx, stream, logger, request.Model, level, start), nil
			}
		},
	}
}

func logStream(ctx context.Context, stream *ai.ChatStream, logger *slog.Logger, model string, level LogLevel, start time.Time) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		var usage *ai.Usage
		var finishReason string

		for event, err := range stream.Iter() {
			if err != nil {
				logFailure(ctx, logger, "llm stream failed", model, start, err)
				yield(event, err)
				return
			}

			switch event.Type {
			case ai.StreamEventUsage:
				usage = event.Usage
			case ai.StreamEventDone:
				finishReason = event.FinishReason
			}

			if !yield(event, nil) {
				logger.InfoContext(ctx, "llm stream abandoned",
					slog.String("model", model),
					slog.Duration("duration", time.Since(start)),
				)
				return
			}
		}

		logger.InfoContext(ctx, "llm stream completed", resultAttrs(model, start, finishReason, usage, level)...)
	})
}

func logFailure(ctx context.Context, logger *slog.Logger, msg, model string, start time.Time, err error) {
	logger.ErrorContext(ctx, msg,
		slog.String("model", model),
		slog.Duration("duration", time.Since(start)),
		slog.String("error", err.Error()),
	)
}

func requestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{slog.String("model", request.Model)}

	if level >= LogLevelStandard {
		attrs = append(attrs, slog.Int("message_count", len(request.Messages)))
	}
	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		first := request.Messages[0]
		attrs = append(attrs,
			slog.String("first_message_role", string(first.Role)),
			slog.String("first_message_content", utils.TruncateString(first.Content, truncateLen)),
		)
	}
	return attrs
}

func resultAttrs(model string, start time.Time, finishReason string, usage *ai.Usage, level LogLevel) []any {
	attrs := []any{
		slog.String("model", model),
		slog.Duration("duration", time.Since(start)),
	}
	if usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", usage.PromptTokens),
			slog.Int("completion_tokens", usage.CompletionTokens),
			slog.Int("total_tokens", usage.TotalTokens),
		)
	}
	if level >= LogLevelStandard && finishReason != "" {
		attrs = append(attrs, slog.String("finish_reason", finishReason))
	}
	return attrs
}
