package middleware

import (
	"context"
	"time"

	"github.com/leofalp/antitok/core/client"
	"github.com/leofalp/antitok/providers/ai"
)

// NewTimeoutMiddleware bounds every call by timeout. For streams the deadline
// covers the whole stream, not just the time to the first byte: the context is
// cancelled only once the iterator returns.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send: func(next client.SendFunc) client.SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				return next(ctx, request)
			}
		},
		Stream: func(next client.StreamFunc) client.StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				ctx, cancel := context.WithTimeout(ctx, timeout)

				stream, err := next(ctx, request)
				if err != nil {
					cancel()
					return nil, err
				}
				return cancelOnEnd(stream, cancel), nil
			}
		},
	}
}

func cancelOnEnd(stream *ai.ChatStream, cancel context.CancelFunc) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		defer cancel()
		for event, err := range stream.Iter() {
			if !yield(event, err) || err != nil {
				return
			}
		}
	})
}
