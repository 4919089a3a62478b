package client

import (
	"context"

	"github.com/leofalp/antitok/core/cost"
	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/observability"
)

// NewObservabilityMiddleware opens a span per LLM call and records request
// count, duration and token metrics. For streams the span stays open until
// the iterator finishes, fails or is abandoned.
//
// The span and observer are put in the context handed to the next step, so
// providers can annotate them. defaultModel labels calls whose request has
// no model. With pricing set, completed calls also record their estimated
// cost.
func NewObservabilityMiddleware(observer observability.Provider, defaultModel string, pricing *cost.ModelCost) MiddlewareConfig {
	return MiddlewareConfig{
		Send: func(next SendFunc) SendFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
				call := startObservedCall(ctx, observer, observability.SpanClientSendMessage, request, defaultModel, pricing)

				response, err := next(call.ctx, request)
				if err != nil {
					call.fail(err)
					return nil, err
				}

				call.succeed(response.FinishReason, response.Usage)
				return response, nil
			}
		},
		Stream: func(next StreamFunc) StreamFunc {
			return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
				call := startObservedCall(ctx, observer, observability.SpanClientStream, request, defaultModel, pricing)

				stream, err := next(call.ctx, request)
				if err != nil {
					call.fail(err)
					return nil, err
				}

				return call.wrap(stream), nil
			}
		},
	}
}

type observedCall struct {
	ctx      context.Context
	span     observability.Span
	observer observability.Provider
	timer    *utils.Timer
	model    string
	pricing  *cost.ModelCost
}

func startObservedCall(ctx context.Context, observer observability.Provider, spanName string, request ai.ChatRequest, defaultModel string, pricing *cost.ModelCost) *observedCall {
	model := utils.FirstNonEmpty(request.Model, defaultModel)

	ctx, span := observer.StartSpan(ctx, spanName, observability.String(observability.AttrLLMModel, model))
	ctx = observability.ContextWithObserver(ctx, observer)

	observer.Debug(ctx, "llm request",
		observability.String(observability.AttrLLMModel, model),
		observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
	)

	return &observedCall{
		ctx:      ctx,
		span:     span,
		observer: observer,
		timer:    utils.NewTimer(),
		model:    model,
		pricing:  pricing,
	}
}

func (c *observedCall) fail(err error) {
	elapsed := c.timer.Stop()

	c.span.RecordError(err)
	c.span.SetStatus(observability.StatusError, "llm request failed")
	c.span.End()

	c.observer.Error(c.ctx, "llm request failed",
		observability.Error(err),
		observability.Duration(observability.AttrDuration, elapsed),
		observability.String(observability.AttrLLMModel, c.model),
	)
	c.observer.Counter(observability.MetricClientRequestCount).Add(c.ctx, 1,
		observability.String(observability.AttrStatus, "error"),
		observability.String(observability.AttrLLMModel, c.model),
	)
}

func (c *observedCall) succeed(finishReason string, usage *ai.Usage) {
	elapsed := c.timer.Stop()
	modelAttr := observability.String(observability.AttrLLMModel, c.model)

	c.observer.Histogram(observability.MetricClientRequestDuration).Record(c.ctx, elapsed.Seconds(), modelAttr)
	c.observer.Counter(observability.MetricClientRequestCount).Add(c.ctx, 1,
		observability.String(observability.AttrStatus, "success"), modelAttr)

	logAttrs := []observability.Attribute{
		modelAttr,
		observability.String(observability.AttrLLMFinishReason, finishReason),
		observability.Duration(observability.AttrDuration, elapsed),
	}

	if usage != nil {
		c.observer.Counter(observability.MetricClientTokensTotal).Add(c.ctx, int64(usage.TotalTokens), modelAttr)
		c.observer.Counter(observability.MetricClientTokensPrompt).Add(c.ctx, int64(usage.PromptTokens), modelAttr)
		c.observer.Counter(observability.MetricClientTokensCompletion).Add(c.ctx, int64(usage.CompletionTokens), modelAttr)

		tokens := []observability.Attribute{
			observability.Int(observability.AttrLLMTokensPrompt, usage.PromptTokens),
			observability.Int(observability.AttrLLMTokensCompletion, usage.CompletionTokens),
			observability.Int(observability.AttrLLMTokensTotal, usage.TotalTokens),
		}
		if c.pricing != nil {
			usd := c.pricing.Estimate(usage)
			c.observer.Histogram(observability.MetricClientCostUSD).Record(c.ctx, usd, modelAttr)
			tokens = append(tokens, observability.Float64(observability.AttrLLMCostUSD, usd))
		}
		c.span.SetAttributes(tokens...)
		logAttrs = append(logAttrs, tokens...)
	}

	c.observer.Info(c.ctx, "llm request completed", logAttrs...)

	c.span.SetStatus(observability.StatusOK, "success")
	c.span.End()
}

// wrap passes events through unchanged and closes the call when the stream ends.
func (c *observedCall) wrap(stream *ai.ChatStream) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		var usage *ai.Usage
		var finishReason string

		for event, err := range stream.Iter() {
			if err != nil {
				c.fail(err)
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
				elapsed := c.timer.Stop()
				c.span.SetStatus(observability.StatusOK, "llm stream abandoned")
				c.span.End()
				c.observer.Info(c.ctx, "llm stream abandoned",
					observability.String(observability.AttrLLMModel, c.model),
					observability.Duration(observability.AttrDuration, elapsed),
				)
				return
			}
		}

		c.succeed(finishReason, usage)
	})
}
