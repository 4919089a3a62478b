package content

import (
	"context"
	"fmt"
	"iter"

	"github.com/leofalp/antitok/core/extract"
	"github.com/leofalp/antitok/core/parse"
	"github.com/leofalp/antitok/core/prompt"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/observability"
)

func (s *Service) feedPrompt(req FeedRequest) (string, []ai.Message, error) {
	count := req.Count
	if count == 0 {
		count = s.feedCount
	}
	if count < 0 || count > maxCount {
		return "", nil, invalid(fmt.Sprintf("count must be between 1 and %d", maxCount))
	}

	replacements := historyFor(req.ExistingTopics)
	replacements["language"] = s.languageOr(req.Language, s.language)
	system, err := prompt.Get(prompt.Feed, replacements)
	if err != nil {
		return "", nil, err
	}

	user := fmt.Sprintf("Generate %d facts in the specified JSON format. Each fact should be a separate JSON object on a new line.", count)
	return system, []ai.Message{ai.UserMessage(user)}, nil
}

// StreamFeed asks for new facts and yields each topic as soon as its JSON
// object is complete in the model output. Topics whose title was already
// shown, or already yielded, are skipped. Errors before the model starts
// answering are returned; later ones are yielded and end the sequence.
// When the model produces no usable topic the sequence ends with
// ErrEmptyResponse.
func (s *Service) StreamFeed(ctx context.Context, req FeedRequest) (iter.Seq2[Topic, error], error) {
	system, messages, err := s.feedPrompt(req)
	if err != nil {
		return nil, err
	}

	ctx, op := s.begin(ctx, "feed", observability.String(observability.AttrContentLanguage, s.languageOr(req.Language, s.language)))
	chunks, err := s.textStream(ctx, op, system, messages)
	if err != nil {
		return nil, err
	}

	return func(yield func(Topic, error) bool) {
		seen := newTitleSet(req.ExistingTopics)
		emitted, skipped := 0, 0

		var streamErr error
		defer func() {
			op.end(streamErr,
				observability.Int(observability.AttrContentCount, emitted),
				observability.Int(observability.AttrContentSkipped, skipped))
		}()

		for record, err := range extract.FromChunks(chunks, extract.WithContext(ctx)) {
			if err != nil {
				streamErr = err
				yield(Topic{}, err)
				return
			}

			topic, err := extract.Decode[Topic](record)
			if err != nil || !s.finishTopic(&topic) {
				skipped++
				op.warn("skipping record that is not a topic", observability.String(observability.AttrExtractSpan, string(record.Raw)))
				continue
			}
			if seen.has(topic.Title) {
				skipped++
				continue
			}
			seen.add(topic.Title)

			emitted++
			if !yield(topic, nil) {
				return
			}
		}

		if emitted == 0 {
			streamErr = ErrEmptyResponse
			yield(Topic{}, ErrEmptyResponse)
		}
	}, nil
}

// Feed is the blocking form of StreamFeed. The answer is read as one JSON
// object per line; if that fails, objects are recovered with the extractor.
func (s *Service) Feed(ctx context.Context, req FeedRequest) (topics []Topic, err error) {
	system, messages, err := s.feedPrompt(req)
	if err != nil {
		return nil, err
	}

	ctx, op := s.begin(ctx, "feed.batch")
	defer func() { op.end(err, observability.Int(observability.AttrContentCount, len(topics))) }()

	text, err := s.complete(ctx, system, messages)
	if err != nil {
		return nil, err
	}

	seen := newTitleSet(req.ExistingTopics)
	for _, topic := range topicsFromText(ctx, op, text) {
		if !s.finishTopic(&topic) || seen.has(topic.Title) {
			continue
		}
		seen.add(topic.Title)
		topics = append(topics, topic)
	}
	if len(topics) == 0 {
		return nil, ErrEmptyResponse
	}
	return topics, nil
}

// topicsFromText reads one topic per line. When the answer is not clean
// NDJSON the objects are recovered with the extractor instead.
func topicsFromText(ctx context.Context, op *operation, text string) []Topic {
	topics, err := parse.Lines[Topic](text)
	if err == nil {
		return topics
	}

	op.warn("answer is not clean NDJSON, extracting objects", observability.Error(err))
	topics = topics[:0]
	for _, record := range extract.Extract(text, extract.WithContext(ctx), extract.WithRepair()).Records {
		if topic, decodeErr := extract.Decode[Topic](record); decodeErr == nil {
			topics = append(topics, topic)
		}
	}
	return topics
}

// Discover produces a single fact, optionally within a theme.
func (s *Service) Discover(ctx context.Context, req DiscoverRequest) (topic Topic, err error) {
	language := s.languageOr(req.Language, s.language)
	replacements := historyFor(req.History)
	replacements["language"] = language
	replacements["themeSection"] = prompt.ThemeSection(req.Theme)

	system, err := prompt.Get(prompt.Discover, replacements)
	if err != nil {
		return Topic{}, err
	}

	ctx, op := s.begin(ctx, "discover", observability.String(observability.AttrContentLanguage, language))
	defer func() { op.end(err, observability.String(observability.AttrContentTitle, topic.Title)) }()

	text, err := s.complete(ctx, system, []ai.Message{ai.UserMessage("Generate one fact in the specified JSON format.")})
	if err != nil {
		return Topic{}, err
	}

	topic, err = parse.ParseStringAs[Topic](text)
	if err != nil {
		return Topic{}, fmt.Errorf("parsing discovered fact: %w", err)
	}
	if !s.finishTopic(&topic) {
		return Topic{}, ErrEmptyResponse
	}
	if newTitleSet(req.History).has(topic.Title) {
		op.warn("model repeated a fact from history", observability.String(observability.AttrContentTitle, topic.Title))
	}
	return topic, nil
}
