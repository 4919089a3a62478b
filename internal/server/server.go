package server

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/leofalp/antitok/internal/content"
	"github.com/leofalp/antitok/providers/observability"
)

// Content is the part of content.Service the handlers call.
type Content interface {
	StreamFeed(ctx context.Context, req content.FeedRequest) (iter.Seq2[content.Topic, error], error)
	Feed(ctx context.Context, req content.FeedRequest) ([]content.Topic, error)
	Discover(ctx context.Context, req content.DiscoverRequest) (content.Topic, error)
	Explain(ctx context.Context, req content.ExplainRequest) (iter.Seq2[string, error], error)
	Generate(ctx context.Context, req content.GenerateRequest) (iter.Seq2[string, error], error)
	TopicReels(ctx context.Context, name string) ([]content.Reel, error)
	SimilarTopics(ctx context.Context, viewed []string) ([]content.Topic, error)
	Interview(ctx context.Context, answer string) (content.LearningPlan, error)
	Learn(ctx context.Context, req content.LearnRequest) ([]content.Topic, error)
}

var _ Content = (*content.Service)(nil)

const (
	defaultMaxBodyBytes    = 1 << 20
	defaultShutdownTimeout = 15 * time.Second
)

// Server routes HTTP requests to a Content implementation.
type Server struct {
	content  Content
	observer observability.Provider
	router   *mux.Router

	allowedOrigins  []string
	maxBodyBytes    int64
	shutdownTimeout time.Duration
	healthChecks    map[string]func(context.Context) error

	// Per-client limiters keyed by remote host. A zero limit disables them.
	limit     rate.Limit
	burst     int
	limiterMu sync.Mutex
	limiters  map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithObserver sends request logs, spans and metrics to observer.
func WithObserver(observer observability.Provider) Option {
	return func(s *Server) { s.observer = observer }
}

// WithRateLimit allows perSecond requests per client with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limit = 0
			return
		}
		s.limit = rate.Limit(perSecond)
		s.burst = max(burst, 1)
	}
}

// WithAllowedOrigins sets the CORS allow list. "*" allows any origin; an
// empty list disables CORS headers.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithMaxBodyBytes caps request bodies; larger ones get 413.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithShutdownTimeout bounds how long Serve waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithHealthCheck adds a named dependency check to GET /health.
func WithHealthCheck(name string, check func(context.Context) error) Option {
	return func(s *Server) { s.healthChecks[name] = check }
}

// New builds a Server around c with its routes registered.
func New(c Content, opts ...Option) *Server {
	s := &Server{
		content:         c,
		allowedOrigins:  []string{"*"},
		maxBodyBytes:    defaultMaxBodyBytes,
		shutdownTimeout: defaultShutdownTimeout,
		healthChecks:    make(map[string]func(context.Context) error),
		limiters:        make(map[string]*clientLimiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.observe)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimit)
	api.HandleFunc("/feed", s.handleFeed).Methods(http.MethodPost)
	api.HandleFunc("/feed/batch", s.handleFeedBatch).Methods(http.MethodPost)
	api.HandleFunc("/discover", s.handleDiscover).Methods(http.MethodPost)
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost)
	api.HandleFunc("/topic", s.handleTopic).Methods(http.MethodPost)
	api.HandleFunc("/similar-topics", s.handleSimilarTopics).Methods(http.MethodPost)
	api.HandleFunc("/interview", s.handleInterview).Methods(http.MethodPost)
	api.HandleFunc("/learn", s.handleLearn).Methods(http.MethodPost)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	for _, r := range []*mux.Router{router, api} {
		r.NotFoundHandler = notFound
		r.MethodNotAllowedHandler = notAllowed
	}
	return router
}

// Handler returns the full middleware chain. Request IDs and CORS wrap the
// router so they also apply to preflight and unmatched requests.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.cors(s.router))
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// for up to the shutdown timeout. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.info(ctx, "server listening", observability.String("addr", listener.Addr().String()))
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.info(ctx, "server shutting down", observability.Duration("timeout", s.shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// SweepLimiters drops limiters idle for longer than idle.
func (s *Server) SweepLimiters(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)

	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	removed := 0
	for client, entry := range s.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(s.limiters, client)
			removed++
		}
	}
	return removed
}

func (s *Server) info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if s.observer != nil {
		s.observer.Info(ctx, msg, attrs...)
	}
}
