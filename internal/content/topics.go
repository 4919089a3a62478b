package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/leofalp/antitok/core/parse"
	"github.com/leofalp/antitok/core/prompt"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/cache"
	"github.com/leofalp/antitok/providers/observability"
)

// TopicReels breaks a topic into text and question reels. Answers are cached
// per topic name when a cache is configured.
func (s *Service) TopicReels(ctx context.Context, name string) (reels []Reel, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("Topic name is required")
	}

	ctx, op := s.begin(ctx, "topic", observability.String(observability.AttrContentTitle, name))
	defer func() { op.end(err, observability.Int(observability.AttrContentCount, len(reels))) }()

	key := "topic:" + titleKey(name)
	if cached, ok := cachedValue[[]Reel](ctx, s, op, key); ok {
		return cached, nil
	}

	system, err := prompt.Get(prompt.Topic, map[string]string{"language": s.language})
	if err != nil {
		return nil, err
	}
	text, err := s.complete(ctx, system, []ai.Message{ai.UserMessage("Topic: " + name)})
	if err != nil {
		return nil, err
	}

	// Reels are decoded one at a time; an unknown type drops only that reel.
	parsed, err := parse.ParseStringAs[[]json.RawMessage](text)
	if err != nil {
		return nil, fmt.Errorf("parsing topic reels: %w", err)
	}
	for _, raw := range parsed {
		var reel Reel
		if decodeErr := json.Unmarshal(raw, &reel); decodeErr != nil {
			op.warn("dropping undecodable reel", observability.Error(decodeErr))
			continue
		}
		if validateErr := reel.Validate(); validateErr != nil {
			op.warn("dropping invalid reel", observability.Error(validateErr))
			continue
		}
		reels = append(reels, reel)
	}
	if len(reels) == 0 {
		return nil, ErrEmptyResponse
	}

	s.store(ctx, op, key, reels)
	return reels, nil
}

// SimilarTopics suggests new topics related to the ones already viewed. A nil
// slice is rejected; an empty one asks for a fresh start.
func (s *Service) SimilarTopics(ctx context.Context, viewed []string) (topics []Topic, err error) {
	if viewed == nil {
		return nil, invalid(`Topic list must be provided as an array in the "viewed" field`)
	}

	ctx, op := s.begin(ctx, "similar_topics", observability.Int(observability.AttrContentCount, len(viewed)))
	defer func() { op.end(err, observability.Int(observability.AttrContentCount, len(topics))) }()

	key := "similar:" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(viewed, "\n"))).String()
	if cached, ok := cachedValue[[]Topic](ctx, s, op, key); ok {
		return cached, nil
	}

	system, err := prompt.Get(prompt.Similar, map[string]string{
		"language": s.language,
		"count":    strconv.Itoa(s.similarCount),
	})
	if err != nil {
		return nil, err
	}

	var user strings.Builder
	user.WriteString("Previously completed facts:")
	for _, title := range viewed {
		user.WriteString("\n- " + title)
	}

	text, err := s.complete(ctx, system, []ai.Message{ai.UserMessage(user.String())})
	if err != nil {
		return nil, err
	}
	parsed, err := parse.ParseStringAs[[]Topic](text)
	if err != nil {
		return nil, fmt.Errorf("parsing similar topics: %w", err)
	}

	seen := newTitleSet(viewed)
	for _, topic := range parsed {
		if !s.finishTopic(&topic) || seen.has(topic.Title) {
			continue
		}
		seen.add(topic.Title)
		topics = append(topics, topic)
	}
	if len(topics) == 0 {
		return nil, ErrEmptyResponse
	}

	s.store(ctx, op, key, topics)
	return topics, nil
}

// cachedValue reads key from the service cache. Misses and cache failures
// both report false; failures are logged and the caller regenerates.
func cachedValue[T any](ctx context.Context, s *Service, op *operation, key string) (T, bool) {
	var zero T
	if s.cache == nil {
		return zero, false
	}
	value, err := cache.GetJSON[T](ctx, s.cache, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			op.warn("cache read failed", observability.String(observability.AttrCacheKey, key), observability.Error(err))
		}
		return zero, false
	}
	return value, true
}

func (s *Service) store(ctx context.Context, op *operation, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, key, value, s.cacheTTL); err != nil {
		op.warn("cache write failed", observability.String(observability.AttrCacheKey, key), observability.Error(err))
	}
}
