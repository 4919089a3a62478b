package server

import (
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"sort"
	"time"

	"github.com/leofalp/antitok/internal/content"
)

const healthTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(s.healthChecks))
	for name := range s.healthChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	status, code := "ok", http.StatusOK
	for _, name := range names {
		if err := s.healthChecks[name](ctx); err != nil {
			checks[name] = err.Error()
			status, code = "unavailable", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]any{"status": status}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	writeJSON(w, code, body)
}

// handleFeed streams topics as NDJSON. Failures before the first topic get a
// normal JSON error response; after that the status is already sent, so a
// final {"error": ...} line is written instead.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	const failure = "Failed to generate feed content"

	var req content.FeedRequest
	if !s.decode(w, r, &req) {
		return
	}
	topics, err := s.content.StreamFeed(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, failure)
		return
	}

	encoder := json.NewEncoder(w)
	started := false
	for topic, err := range topics {
		if err != nil {
			if !started {
				s.fail(w, r, err, failure)
				return
			}
			s.logFailure(r, "feed stream interrupted", err)
			_ = encoder.Encode(errorBody{Error: failure})
			flush(w)
			return
		}

		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := encoder.Encode(topic); err != nil {
			s.logFailure(r, "writing feed topic", err)
			return
		}
		flush(w)
	}
}

func (s *Server) handleFeedBatch(w http.ResponseWriter, r *http.Request) {
	var req content.FeedRequest
	if !s.decode(w, r, &req) {
		return
	}
	topics, err := s.content.Feed(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to generate feed content")
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req content.DiscoverRequest
	if !s.decode(w, r, &req) {
		return
	}
	topic, err := s.content.Discover(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to generate fact")
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req content.ExplainRequest
	if !s.decode(w, r, &req) {
		return
	}
	chunks, err := s.content.Explain(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to generate explanation")
		return
	}
	s.streamText(w, r, chunks, "Failed to generate explanation")
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req content.GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}
	chunks, err := s.content.Generate(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to generate fact")
		return
	}
	s.streamText(w, r, chunks, "Failed to generate fact")
}

// streamText writes chunks as they arrive. An error after the first chunk
// can only be logged; the client sees the text end early.
func (s *Server) streamText(w http.ResponseWriter, r *http.Request, chunks iter.Seq2[string, error], failure string) {
	started := false
	for chunk, err := range chunks {
		if err != nil {
			if !started {
				s.fail(w, r, err, failure)
				return
			}
			s.logFailure(r, "text stream interrupted", err)
			return
		}

		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			s.logFailure(r, "writing text chunk", err)
			return
		}
		flush(w)
	}

	if !started {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	reels, err := s.content.TopicReels(r.Context(), req.Name)
	if err != nil {
		s.fail(w, r, err, "Failed to generate topic content")
		return
	}
	writeJSON(w, http.StatusOK, reels)
}

func (s *Server) handleSimilarTopics(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Viewed []string `json:"viewed"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	topics, err := s.content.SimilarTopics(r.Context(), req.Viewed)
	if err != nil {
		s.fail(w, r, err, "Failed to generate similar topics")
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer string `json:"answer"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	plan, err := s.content.Interview(r.Context(), req.Answer)
	if err != nil {
		s.fail(w, r, err, "Failed to generate learning plan")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req content.LearnRequest
	if !s.decode(w, r, &req) {
		return
	}
	topics, err := s.content.Learn(r.Context(), req)
	if err != nil {
		s.fail(w, r, err, "Failed to generate learning content")
		return
	}
	writeJSON(w, http.StatusOK, topics)
}
