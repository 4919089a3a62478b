package content

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/antitok/core/client"
	"github.com/leofalp/antitok/core/prompt"
	"github.com/leofalp/antitok/internal/utils"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/cache"
	"github.com/leofalp/antitok/providers/observability"
)

const (
	defaultFeedCount    = 2
	defaultSimilarCount = 5
	maxCount            = 20
	defaultCacheTTL     = 24 * time.Hour

	// Fallback languages; Generate has its own.
	defaultLanguage         = "English"
	defaultGenerateLanguage = "Ukrainian"
)

// Service turns prompts and model output into the content served by the API.
// It is safe for concurrent use.
type Service struct {
	client   *client.Client
	observer observability.Provider

	cache    cache.Provider
	cacheTTL time.Duration

	feedCount    int
	similarCount int
	language     string
	newID        func() string
}

// Option configures a Service.
type Option func(*Service)

// WithCache stores topic reels and similar topics in c for ttl.
func WithCache(c cache.Provider, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithFeedCount sets how many facts a feed request asks for by default.
func WithFeedCount(n int) Option {
	return func(s *Service) { s.feedCount = n }
}

// WithSimilarCount sets how many topics SimilarTopics suggests.
func WithSimilarCount(n int) Option {
	return func(s *Service) { s.similarCount = n }
}

// WithDefaultLanguage applies to every operation except Generate, which keeps
// its own default.
func WithDefaultLanguage(language string) Option {
	return func(s *Service) { s.language = language }
}

// NewService builds a Service on c. It fails on a nil client or an out of
// range count.
func NewService(c *client.Client, opts ...Option) (*Service, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	s := &Service{
		client:       c,
		observer:     c.Observer(),
		cacheTTL:     defaultCacheTTL,
		feedCount:    defaultFeedCount,
		similarCount: defaultSimilarCount,
		language:     defaultLanguage,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.feedCount <= 0 || s.feedCount > maxCount {
		return nil, fmt.Errorf("content: feed count must be between 1 and %d, got %d", maxCount, s.feedCount)
	}
	if s.similarCount <= 0 || s.similarCount > maxCount {
		return nil, fmt.Errorf("content: similar count must be between 1 and %d, got %d", maxCount, s.similarCount)
	}
	return s, nil
}

func (s *Service) languageOr(language, fallback string) string {
	return utils.FirstNonEmpty(strings.TrimSpace(language), fallback)
}

// complete runs one blocking call and fails with ErrEmptyResponse on blank
// output.
func (s *Service) complete(ctx context.Context, system string, messages []ai.Message) (string, error) {
	response, err := s.client.Complete(ctx, ai.ChatRequest{SystemPrompt: system, Messages: messages})
	if err != nil {
		return "", err
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyResponse
	}
	if response.Truncated() {
		warnTruncated(ctx)
	}
	return response.Content, nil
}

// textStream starts a streaming call and returns its content deltas. A
// failure to start ends op. A stream that stops at the token limit is logged.
func (s *Service) textStream(ctx context.Context, op *operation, system string, messages []ai.Message) (iter.Seq2[string, error], error) {
	stream, err := s.client.Stream(ctx, ai.ChatRequest{SystemPrompt: system, Messages: messages})
	if err != nil {
		op.end(err)
		return nil, err
	}
	return func(yield func(string, error) bool) {
		for event, err := range stream.Iter() {
			if err != nil {
				yield("", err)
				return
			}
			switch event.Type {
			case ai.StreamEventContent:
				if event.Content != "" && !yield(event.Content, nil) {
					return
				}
			case ai.StreamEventDone:
				if event.FinishReason == ai.FinishReasonLength {
					warnTruncated(ctx)
				}
			}
		}
	}, nil
}

// warnTruncated logs that the answer hit the token limit. The last record
// of a cut-off answer is usually incomplete and gets dropped.
func warnTruncated(ctx context.Context) {
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Warn(ctx, "model answer cut off at the token limit",
			observability.String(observability.AttrLLMFinishReason, ai.FinishReasonLength))
	}
}

// endWith passes chunks through and ends op when iteration stops.
func endWith(op *operation, chunks iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var streamErr error
		defer func() { op.end(streamErr) }()

		for chunk, err := range chunks {
			if err != nil {
				streamErr = err
				yield("", err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// finishTopic trims fields and fills a missing ID. It reports false for a
// topic without a title.
func (s *Service) finishTopic(topic *Topic) bool {
	topic.ID = strings.TrimSpace(topic.ID)
	topic.Title = strings.TrimSpace(topic.Title)
	topic.Category = strings.TrimSpace(topic.Category)
	topic.Teaser = strings.TrimSpace(topic.Teaser)
	if topic.Title == "" {
		return false
	}
	if topic.ID == "" {
		topic.ID = s.newID()
	}
	return true
}

// titleSet indexes titles case-insensitively.
type titleSet map[string]struct{}

func newTitleSet(titles []string) titleSet {
	set := make(titleSet, len(titles))
	for _, title := range titles {
		set.add(title)
	}
	return set
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func (s titleSet) add(title string) { s[titleKey(title)] = struct{}{} }

func (s titleSet) has(title string) bool {
	_, ok := s[titleKey(title)]
	return ok
}

// historyFor renders the "do not repeat" block for the given titles.
func historyFor(titles []string) map[string]string {
	return map[string]string{"historySection": prompt.HistorySection(titles)}
}
