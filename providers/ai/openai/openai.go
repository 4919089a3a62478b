package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/observability"
)

const (
	providerName            = "openai"
	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// ErrMissingAPIKey is returned before any request is made without a key.
var ErrMissingAPIKey = errors.New("openai: API key is not set")

// OpenAIProvider talks to any OpenAI compatible /chat/completions endpoint.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.StreamProvider = (*OpenAIProvider)(nil)

// New reads OPENAI_API_KEY and OPENAI_API_BASE_URL from the environment.
func New() *OpenAIProvider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &OpenAIProvider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (p *OpenAIProvider) Name() string {
	return providerName
}

func (p *OpenAIProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *OpenAIProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

func (p *OpenAIProvider) WithHTTPClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// SendMessage performs a blocking chat completion.
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.annotate(ctx, request, false)

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	httpResponse, resp, err := utils.DoPostSync[chatCompletionResponse](ctx, p.client, p.baseURL+chatCompletionsEndpoint, p.apiKey, requestFromGeneric(request))
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("openai: empty response body (%s)", httpResponse.Status)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}

	return responseToGeneric(resp), nil
}


// annotate tags the current span, if any, with request metadata.
func (p *OpenAIProvider) annotate(ctx context.Context, request ai.ChatRequest, streaming bool) {
	attrs := []observability.Attribute{
		observability.String(observability.AttrLLMProvider, providerName),
		observability.String(observability.AttrLLMEndpoint, p.baseURL),
		observability.String(observability.AttrLLMModel, request.Model),
		observability.Bool(observability.AttrLLMStreaming, streaming),
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(attrs...)
	}
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Trace(ctx, "openai request prepared",
			append(attrs, observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)))...)
	}
}
