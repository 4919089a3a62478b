package anthropic

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
	providerName     = "anthropic"
	defaultBaseURL   = "https://api.anthropic.com/v1"
	messagesEndpoint = "/messages"

	// anthropicVersion pins the wire format independently of the URL.
	anthropicVersion = "2023-06-01"

	// defaultMaxTokens is sent when the request leaves it unset; the API
	// rejects requests without max_tokens.
	defaultMaxTokens = 4096
)

// ErrMissingAPIKey is returned before any request is made without a key.
var ErrMissingAPIKey = errors.New("anthropic: API key is not set")

// AnthropicProvider implements ai.StreamProvider for the Messages API.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.StreamProvider = (*AnthropicProvider)(nil)

// New reads ANTHROPIC_API_KEY and ANTHROPIC_API_BASE_URL from the environment.
func New() *AnthropicProvider {
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &AnthropicProvider{
		apiKey:  os.Getenv("ANTHROPIC_API_KEY"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (p *AnthropicProvider) Name() string {
	return providerName
}

func (p *AnthropicProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *AnthropicProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

func (p *AnthropicProvider) WithHTTPClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// headers carries the credential in x-api-key; Anthropic does not accept
// Bearer tokens, so the apiKey argument of the utils helpers stays empty.
func (p *AnthropicProvider) headers() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "x-api-key", Value: p.apiKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}
}

// SendMessage performs a blocking Messages API call.
func (p *AnthropicProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	p.annotate(ctx, request, false)

	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	httpResponse, resp, err := utils.DoPostSync[messagesResponse](ctx, p.client, p.baseURL+messagesEndpoint, "", requestToAnthropic(request), p.headers()...)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("anthropic: empty response body (%s)", httpResponse.Status)
	}

	result := responseToGeneric(resp)
	if result.Model == "" {
		result.Model = request.Model
	}

	if span := observability.SpanFromContext(ctx); span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMResponseID, result.ID),
			observability.String(observability.AttrLLMFinishReason, result.FinishReason),
		)
		span.AddEvent(observability.EventLLMRequestEnd)
	}

	return result, nil
}


func (p *AnthropicProvider) annotate(ctx context.Context, request ai.ChatRequest, streaming bool) {
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
		observer.Trace(ctx, "anthropic request prepared",
			append(attrs, observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)))...)
	}
}
