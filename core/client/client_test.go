package client

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leofalp/antitok/core/cost"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/observability"
	"github.com/leofalp/antitok/providers/observability/slogobs"
)

// fakeProvider answers every SendMessage with response/err and records requests.
type fakeProvider struct {
	mu       sync.Mutex
	requests []ai.ChatRequest
	contexts []context.Context
	response *ai.ChatResponse
	err      error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, request)
	p.contexts = append(p.contexts, ctx)
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func (p *fakeProvider) WithAPIKey(string) ai.Provider           { return p }
func (p *fakeProvider) WithBaseURL(string) ai.Provider          { return p }
func (p *fakeProvider) WithHTTPClient(*http.Client) ai.Provider { return p }

// fakeStreamProvider streams the given chunks.
type fakeStreamProvider struct {
	fakeProvider
	chunks    []string
	streamErr error
}

func (p *fakeStreamProvider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	p.mu.Lock()
	p.requests = append(p.requests, request)
	p.mu.Unlock()
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for _, chunk := range p.chunks {
			if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: chunk}, nil) {
				return
			}
		}
		if !yield(ai.StreamEvent{Type: ai.StreamEventUsage, Usage: &ai.Usage{PromptTokens: 2, CompletionTokens: 3, TotalTokens: 5}}, nil) {
			return
		}
		yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: ai.FinishReasonStop}, nil)
	}), nil
}

func TestNew_NilProvider(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNilProvider) {
		t.Errorf("expected ErrNilProvider, got %v", err)
	}
}

func TestNew_NilSendMiddleware(t *testing.T) {
	_, err := New(&fakeProvider{}, WithMiddleware(MiddlewareConfig{}))
	if err == nil || !strings.Contains(err.Error(), "nil Send") {
		t.Errorf("expected nil Send error, got %v", err)
	}
}

func TestComplete_AppliesDefaults(t *testing.T) {
	provider := &fakeProvider{response: &ai.ChatResponse{Content: "ok"}}
	c, err := New(provider,
		WithDefaultModel("gpt-4"),
		WithSystemPrompt("be brief"),
		WithTemperature(0.7),
		WithMaxTokens(1000),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.Complete(context.Background(), ai.ChatRequest{Messages: []ai.Message{ai.UserMessage("hi")}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := ai.ChatRequest{
		Model:            "gpt-4",
		SystemPrompt:     "be brief",
		Messages:         []ai.Message{ai.UserMessage("hi")},
		GenerationConfig: &ai.GenerationConfig{Temperature: 0.7, MaxTokens: 1000},
	}
	if diff := cmp.Diff(want, provider.requests[0]); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestComplete_RequestValuesWin(t *testing.T) {
	provider := &fakeProvider{response: &ai.ChatResponse{}}
	c, _ := New(provider, WithDefaultModel("gpt-4"), WithSystemPrompt("default"), WithTemperature(0.7), WithMaxTokens(1000))

	config := &ai.GenerationConfig{Temperature: 0.2}
	_, _ = c.Complete(context.Background(), ai.ChatRequest{Model: "claude", SystemPrompt: "custom", GenerationConfig: config})

	got := provider.requests[0]
	if got.Model != "claude" || got.SystemPrompt != "custom" {
		t.Errorf("expected request model and prompt kept, got %q / %q", got.Model, got.SystemPrompt)
	}
	if got.GenerationConfig.Temperature != 0.2 || got.GenerationConfig.MaxTokens != 1000 {
		t.Errorf("expected merged config, got %+v", got.GenerationConfig)
	}
	if config.MaxTokens != 0 {
		t.Error("expected caller config left untouched")
	}
}

func TestComplete_NoDefaultsLeavesConfigNil(t *testing.T) {
	provider := &fakeProvider{response: &ai.ChatResponse{}}
	c, _ := New(provider)
	_, _ = c.Complete(context.Background(), ai.ChatRequest{})
	if provider.requests[0].GenerationConfig != nil {
		t.Errorf("expected nil config, got %+v", provider.requests[0].GenerationConfig)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) MiddlewareConfig {
		return MiddlewareConfig{
			Send: func(next SendFunc) SendFunc {
				return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
					order = append(order, name+">")
					response, err := next(ctx, request)
					order = append(order, "<"+name)
					return response, err
				}
			},
			Stream: func(next StreamFunc) StreamFunc {
				return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
					order = append(order, name+">")
					return next(ctx, request)
				}
			},
		}
	}
	sendOnly := MiddlewareConfig{Send: func(next SendFunc) SendFunc { return next }}

	c, err := New(&fakeStreamProvider{fakeProvider: fakeProvider{response: &ai.ChatResponse{}}},
		WithMiddleware(tag("a"), sendOnly, tag("b")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _ = c.Complete(context.Background(), ai.ChatRequest{})
	if diff := cmp.Diff([]string{"a>", "b>", "<b", "<a"}, order); diff != "" {
		t.Errorf("send order mismatch (-want +got):\n%s", diff)
	}

	order = nil
	if _, err := c.Stream(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"a>", "b>"}, order); diff != "" {
		t.Errorf("stream order mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_NativeProvider(t *testing.T) {
	provider := &fakeStreamProvider{chunks: []string{`{"id":`, `"1"}`}}
	c, _ := New(provider)

	stream, err := c.Stream(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != `{"id":"1"}` {
		t.Errorf("unexpected content %q", response.Content)
	}
}

func TestStream_FallsBackToSend(t *testing.T) {
	provider := &fakeProvider{response: &ai.ChatResponse{Content: "whole", FinishReason: ai.FinishReasonStop}}
	c, _ := New(provider)

	stream, err := c.Stream(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var chunks []string
	for chunk, err := range stream.Text() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) != 1 || chunks[0] != "whole" {
		t.Errorf("expected single chunk, got %v", chunks)
	}
}

func TestStream_FallbackPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	c, _ := New(&fakeProvider{err: boom})
	if _, err := c.Stream(context.Background(), ai.ChatRequest{}); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}

func newJSONObserver(buf *bytes.Buffer) *slogobs.Observer {
	return slogobs.New(slogobs.WithOutput(buf), slogobs.WithFormat(slogobs.FormatJSON), slogobs.WithLevel(slog.LevelDebug))
}

func TestObserver_InjectedIntoProviderContext(t *testing.T) {
	var buf bytes.Buffer
	observer := newJSONObserver(&buf)
	provider := &fakeProvider{response: &ai.ChatResponse{Content: "x", Usage: &ai.Usage{TotalTokens: 9, PromptTokens: 4, CompletionTokens: 5}}}

	c, _ := New(provider, WithObserver(observer), WithDefaultModel("gpt-4"))
	if _, err := c.Complete(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := provider.contexts[0]
	if observability.ObserverFromContext(ctx) == nil {
		t.Error("expected observer in provider context")
	}
	if observability.SpanFromContext(ctx) == nil {
		t.Error("expected span in provider context")
	}
	if got := observer.CounterValue(observability.MetricClientRequestCount); got != 1 {
		t.Errorf("expected 1 request counted, got %d", got)
	}
	if got := observer.CounterValue(observability.MetricClientTokensTotal); got != 9 {
		t.Errorf("expected 9 tokens counted, got %d", got)
	}
	if !strings.Contains(buf.String(), "llm request completed") {
		t.Errorf("expected completion log, got %s", buf.String())
	}
}

func TestObserver_RecordsCost(t *testing.T) {
	var buf bytes.Buffer
	observer := newJSONObserver(&buf)
	provider := &fakeProvider{response: &ai.ChatResponse{Content: "x", Usage: &ai.Usage{PromptTokens: 1_000_000, CompletionTokens: 500_000, TotalTokens: 1_500_000}}}

	c, _ := New(provider, WithObserver(observer), WithModelCost(cost.ModelCost{InputPerMillion: 2, OutputPerMillion: 8}))
	if _, err := c.Complete(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), `"llm.cost.usd":6`) {
		t.Errorf("expected estimated cost of 6 USD in logs, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), observability.MetricClientCostUSD) {
		t.Errorf("expected cost histogram, got %s", buf.String())
	}
}

func TestObserver_SendErrorCounted(t *testing.T) {
	var buf bytes.Buffer
	observer := newJSONObserver(&buf)
	c, _ := New(&fakeProvider{err: errors.New("non-2xx status 500: oops")}, WithObserver(observer))

	if _, err := c.Complete(context.Background(), ai.ChatRequest{}); err == nil {
		t.Fatal("expected error")
	}
	if got := observer.CounterValue(observability.MetricClientRequestCount); got != 1 {
		t.Errorf("expected failed request counted, got %d", got)
	}
	if !strings.Contains(buf.String(), "llm request failed") {
		t.Errorf("expected failure log, got %s", buf.String())
	}
}

func TestObserver_StreamRecordedOnCompletion(t *testing.T) {
	var buf bytes.Buffer
	observer := newJSONObserver(&buf)
	c, _ := New(&fakeStreamProvider{chunks: []string{"a", "b"}}, WithObserver(observer))

	stream, err := c.Stream(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if observer.CounterValue(observability.MetricClientRequestCount) != 0 {
		t.Error("expected nothing recorded before the stream is consumed")
	}
	if _, err := stream.Collect(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := observer.CounterValue(observability.MetricClientTokensTotal); got != 5 {
		t.Errorf("expected 5 tokens, got %d", got)
	}
}

func TestObserver_StreamAbandoned(t *testing.T) {
	var buf bytes.Buffer
	observer := newJSONObserver(&buf)
	c, _ := New(&fakeStreamProvider{chunks: []string{"a", "b"}}, WithObserver(observer))

	stream, _ := c.Stream(context.Background(), ai.ChatRequest{})
	for range stream.Text() {
		break
	}
	if !strings.Contains(buf.String(), "llm stream abandoned") {
		t.Errorf("expected abandoned log, got %s", buf.String())
	}
	if observer.CounterValue(observability.MetricClientRequestCount) != 0 {
		t.Error("expected abandoned stream not counted as success")
	}
}
