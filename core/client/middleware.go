package client

import (
	"context"

	"github.com/leofalp/antitok/providers/ai"
)

// SendFunc is one step of the blocking call chain.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// StreamFunc is one step of the streaming call chain.
type StreamFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error)

// Middleware wraps the next SendFunc.
type Middleware func(next SendFunc) SendFunc

// StreamMiddleware wraps the next StreamFunc. It may replace the returned
// ChatStream to watch or alter its events.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs a send middleware with its streaming counterpart.
// Send is required. A nil Stream means streaming calls skip this entry, which
// is what retry does since a stream cannot be replayed once it has started.
type MiddlewareConfig struct {
	Send   Middleware
	Stream StreamMiddleware
}

// buildSendChain wraps provider.SendMessage so that middlewares[0] is outermost.
func buildSendChain(provider ai.Provider, middlewares []MiddlewareConfig) SendFunc {
	chain := SendFunc(provider.SendMessage)
	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Send(chain)
	}
	return chain
}

// buildStreamChain is the streaming counterpart of buildSendChain. The base
// step streams natively when the provider can, and otherwise replays a
// blocking response as a single-event stream.
func buildStreamChain(provider ai.Provider, middlewares []MiddlewareConfig) StreamFunc {
	chain := StreamFunc(func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
		if streamProvider, ok := provider.(ai.StreamProvider); ok {
			return streamProvider.StreamMessage(ctx, request)
		}

		response, err := provider.SendMessage(ctx, request)
		if err != nil {
			return nil, err
		}
		return ai.NewSingleEventStream(response), nil
	})

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}
	return chain
}
