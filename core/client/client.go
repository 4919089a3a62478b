package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/antitok/core/cost"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/observability"
)

// ErrNilProvider is returned by New when no provider is given.
var ErrNilProvider = errors.New("client: provider is nil")

// Client applies per-application defaults to chat requests and runs them
// through the configured middleware chain. A Client is immutable after New
// and safe for concurrent use.
type Client struct {
	observer     observability.Provider
	defaultModel string
	systemPrompt string
	temperature  float32
	maxTokens    int
	pricing      *cost.ModelCost
	middlewares  []MiddlewareConfig

	send   SendFunc
	stream StreamFunc
}

// Option configures a Client.
type Option func(*Client)

// WithDefaultModel is used when a request leaves Model empty.
func WithDefaultModel(model string) Option {
	return func(c *Client) { c.defaultModel = model }
}

// WithSystemPrompt is used when a request leaves SystemPrompt empty.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// WithTemperature sets the default sampling temperature.
func WithTemperature(temperature float32) Option {
	return func(c *Client) { c.temperature = temperature }
}

// WithMaxTokens sets the default completion budget.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) { c.maxTokens = maxTokens }
}

// WithObserver enables tracing, metrics and logging. The observability
// middleware is placed outermost so it sees the outcome after retries.
func WithObserver(observer observability.Provider) Option {
	return func(c *Client) { c.observer = observer }
}

// WithModelCost prices completed calls. The estimate is recorded by the
// observability middleware, so it needs WithObserver.
func WithModelCost(pricing cost.ModelCost) Option {
	return func(c *Client) { c.pricing = &pricing }
}

// WithMiddleware appends middlewares; the first one given runs first.
func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, middlewares...) }
}

// New builds a Client around provider.
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}

	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	middlewares := c.middlewares
	for i, middleware := range middlewares {
		if middleware.Send == nil {
			return nil, fmt.Errorf("client: middleware %d has a nil Send function", i)
		}
	}

	if c.observer != nil {
		middlewares = append([]MiddlewareConfig{NewObservabilityMiddleware(c.observer, c.defaultModel, c.pricing)}, middlewares...)
	}

	c.send = buildSendChain(provider, middlewares)
	c.stream = buildStreamChain(provider, middlewares)
	return c, nil
}

// Observer returns the configured observer, or nil.
func (c *Client) Observer() observability.Provider {
	return c.observer
}

// Complete sends request and waits for the whole answer.
func (c *Client) Complete(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	return c.send(c.withObserver(ctx), c.applyDefaults(request))
}

// Stream sends request and returns the incremental answer. Providers without
// streaming support are served through a single-event stream.
func (c *Client) Stream(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	return c.stream(c.withObserver(ctx), c.applyDefaults(request))
}

func (c *Client) withObserver(ctx context.Context) context.Context {
	if c.observer == nil || observability.ObserverFromContext(ctx) != nil {
		return ctx
	}
	return observability.ContextWithObserver(ctx, c.observer)
}

// applyDefaults fills unset fields without touching the caller's config.
func (c *Client) applyDefaults(request ai.ChatRequest) ai.ChatRequest {
	if request.Model == "" {
		request.Model = c.defaultModel
	}
	if request.SystemPrompt == "" {
		request.SystemPrompt = c.systemPrompt
	}

	if c.temperature == 0 && c.maxTokens == 0 {
		return request
	}

	config := ai.GenerationConfig{}
	if request.GenerationConfig != nil {
		config = *request.GenerationConfig
	}
	if config.Temperature == 0 {
		config.Temperature = c.temperature
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = c.maxTokens
	}
	request.GenerationConfig = &config
	return request
}
