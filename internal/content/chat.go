package content

import (
	"context"
	"iter"
	"strings"

	"github.com/leofalp/antitok/core/prompt"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/observability"
)

// Explain streams a detailed explanation of teaser and then continues the
// conversation in History, followed by Message when it is set.
func (s *Service) Explain(ctx context.Context, req ExplainRequest) (iter.Seq2[string, error], error) {
	teaser := strings.TrimSpace(req.Teaser)
	if teaser == "" {
		return nil, invalid("Fact is required")
	}
	history, err := toAIMessages(req.History)
	if err != nil {
		return nil, err
	}

	language := s.languageOr(req.Language, s.language)
	system, err := prompt.Get(prompt.Explanation, map[string]string{"language": language})
	if err != nil {
		return nil, err
	}

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.UserMessage("Please explain this fact in detail: "+teaser))
	messages = append(messages, history...)
	if message := strings.TrimSpace(req.Message); message != "" {
		messages = append(messages, ai.UserMessage(message))
	}

	ctx, op := s.begin(ctx, "explain", observability.String(observability.AttrContentLanguage, language))
	chunks, err := s.textStream(ctx, op, system, messages)
	if err != nil {
		return nil, err
	}
	return endWith(op, chunks), nil
}

// Generate streams the next fact of a yes/no fact chat. Language defaults to
// Ukrainian.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (iter.Seq2[string, error], error) {
	if len(req.Messages) == 0 {
		return nil, invalid("Messages are required")
	}
	messages, err := toAIMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	language := s.languageOr(req.Language, defaultGenerateLanguage)
	system, err := prompt.Get(prompt.Generate, map[string]string{"language": language})
	if err != nil {
		return nil, err
	}

	ctx, op := s.begin(ctx, "generate", observability.String(observability.AttrContentLanguage, language))
	chunks, err := s.textStream(ctx, op, system, messages)
	if err != nil {
		return nil, err
	}
	return endWith(op, chunks), nil
}
