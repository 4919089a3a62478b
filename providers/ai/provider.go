package ai

import (
	"context"
	"net/http"
)

// Provider sends a chat request to one LLM vendor and waits for the full answer.
type Provider interface {
	// Name identifies the vendor ("openai", "anthropic") in logs and metrics.
	Name() string

	// SendMessage returns the completed response, or an error when the call
	// fails, ctx is cancelled or the body cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	WithAPIKey(apiKey string) Provider
	WithBaseURL(baseURL string) Provider
	WithHTTPClient(httpClient *http.Client) Provider
}

// StreamProvider is implemented by providers that can stream deltas over SSE.
// Callers detect it with a type assertion and fall back to SendMessage plus
// NewSingleEventStream otherwise.
type StreamProvider interface {
	Provider

	// StreamMessage returns errors raised before the first byte (auth, bad
	// request, network) directly. Errors after that are yielded by the stream.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}
