package content

import (
	"context"
	"strings"

	"github.com/leofalp/antitok/core/parse"
	"github.com/leofalp/antitok/core/prompt"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/observability"
)

// Interview turns the user's answers about a skill into a Markdown learning
// plan. HTML answers are converted to Markdown.
func (s *Service) Interview(ctx context.Context, answer string) (plan LearningPlan, err error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return LearningPlan{}, invalid("Answer is required")
	}

	system, err := prompt.Get(prompt.Interview, map[string]string{"answer": answer})
	if err != nil {
		return LearningPlan{}, err
	}

	ctx, op := s.begin(ctx, "interview")
	defer func() { op.end(err) }()

	text, err := s.complete(ctx, system, []ai.Message{ai.UserMessage("Please create my personalized learning plan.")})
	if err != nil {
		return LearningPlan{}, err
	}

	markdown, err := parse.ToMarkdown(text)
	if err != nil {
		return LearningPlan{}, err
	}
	return LearningPlan{Markdown: strings.TrimSpace(markdown)}, nil
}

// Learn generates study cards for the current level of a learning plan.
// Language defaults to English.
func (s *Service) Learn(ctx context.Context, req LearnRequest) (topics []Topic, err error) {
	if strings.TrimSpace(req.LearningPlan) == "" {
		return nil, invalid("Learning plan is required")
	}
	history, err := toAIMessages(req.History)
	if err != nil {
		return nil, err
	}

	language := s.languageOr(req.Language, defaultLanguage)
	replacements := historyFor(req.ExistingTopics)
	replacements["language"] = language
	replacements["learningPlan"] = req.LearningPlan
	replacements["level"] = req.Level

	system, err := prompt.Get(prompt.Learn, replacements)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		history = []ai.Message{ai.UserMessage("Generate the next card.")}
	}

	ctx, op := s.begin(ctx, "learn", observability.String(observability.AttrContentLanguage, language))
	defer func() { op.end(err, observability.Int(observability.AttrContentCount, len(topics))) }()

	text, err := s.complete(ctx, system, history)
	if err != nil {
		return nil, err
	}

	for _, topic := range topicsFromText(ctx, op, text) {
		if s.finishTopic(&topic) {
			topics = append(topics, topic)
		}
	}
	if len(topics) == 0 {
		return nil, ErrEmptyResponse
	}
	return topics, nil
}
