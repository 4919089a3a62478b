// Command antitok serves the fact feed API.
//
// Configuration is read from an optional TOML file (-config or
// ANTITOK_CONFIG), then .env, then the environment. OPENAI_API_KEY or
// ANTHROPIC_API_KEY must be set for the selected AI_PROVIDER.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leofalp/antitok/core/client"
	"github.com/leofalp/antitok/core/client/middleware"
	"github.com/leofalp/antitok/internal/config"
	"github.com/leofalp/antitok/internal/content"
	"github.com/leofalp/antitok/internal/server"
	"github.com/leofalp/antitok/providers/ai"
	"github.com/leofalp/antitok/providers/ai/anthropic"
	"github.com/leofalp/antitok/providers/ai/openai"
	"github.com/leofalp/antitok/providers/cache"
	"github.com/leofalp/antitok/providers/cache/inmemory"
	"github.com/leofalp/antitok/providers/cache/rediscache"
	"github.com/leofalp/antitok/providers/observability"
	"github.com/leofalp/antitok/providers/observability/slogobs"
)

const sweepInterval = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "antitok: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	flags := flag.NewFlagSet("antitok", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "path to a TOML config file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	observer := newObserver(cfg, os.Stdout)

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	if cfg.Credentials().APIKey == "" {
		observer.Warn(ctx, "no API key configured, model calls will fail",
			observability.String(observability.AttrLLMProvider, cfg.Provider))
	}
	// Timeout wraps retries so one deadline covers every attempt.
	var chain []client.MiddlewareConfig
	if cfg.Client.Timeout > 0 {
		chain = append(chain, middleware.NewTimeoutMiddleware(cfg.Client.Timeout))
	}
	if cfg.Client.MaxRetries > 0 {
		chain = append(chain, middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: cfg.Client.MaxRetries}))
	}
	chain = append(chain, middleware.NewLoggingMiddleware(observer.Logger(), middleware.LogLevelMinimal))

	clientOpts := []client.Option{
		client.WithDefaultModel(cfg.Model),
		client.WithTemperature(float32(cfg.Temperature)),
		client.WithMaxTokens(cfg.MaxTokens),
		client.WithObserver(observer),
		client.WithMiddleware(chain...),
	}
	if !cfg.Cost.IsZero() {
		clientOpts = append(clientOpts, client.WithModelCost(cfg.Cost))
	}
	aiClient, err := client.New(provider, clientOpts...)
	if err != nil {
		return fmt.Errorf("building client: %w", err)
	}

	store, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	service, err := content.NewService(aiClient,
		content.WithCache(store, cfg.Cache.TTL),
		content.WithFeedCount(cfg.Content.FeedCount),
		content.WithSimilarCount(cfg.Content.SimilarCount),
		content.WithDefaultLanguage(cfg.Content.DefaultLanguage),
	)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithObserver(observer),
		server.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	}
	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		opts = append(opts, server.WithHealthCheck("cache", pinger.Ping))
	}
	srv := server.New(service, opts...)

	observer.Info(ctx, "starting antitok",
		observability.String("provider", cfg.Provider),
		observability.String("model", cfg.Model),
		observability.String("addr", cfg.Server.Addr),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.Server.Addr)
	})
	g.Go(func() error {
		sweep(gctx, store, srv)
		return nil
	})
	return g.Wait()
}

// newObserver builds the logger. Empty log settings leave slogobs to read
// LOG_LEVEL and LOG_FORMAT itself.
func newObserver(cfg *config.Config, output io.Writer) *slogobs.Observer {
	opts := []slogobs.Option{slogobs.WithOutput(output)}
	if cfg.Log.Format != "" {
		opts = append(opts, slogobs.WithFormat(slogobs.ParseFormat(cfg.Log.Format)))
	}
	if cfg.Log.Level != "" {
		opts = append(opts, slogobs.WithLevel(slogobs.ParseLogLevel(cfg.Log.Level)))
	}
	return slogobs.New(opts...)
}

// newProvider picks the vendor named in cfg. Explicit credentials override
// the ones the provider read from the environment.
func newProvider(cfg *config.Config) (ai.Provider, error) {
	var provider ai.Provider
	switch cfg.Provider {
	case config.ProviderOpenAI:
		provider = openai.New()
	case config.ProviderAnthropic:
		provider = anthropic.New()
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}

	credentials := cfg.Credentials()
	if credentials.APIKey != "" {
		provider = provider.WithAPIKey(credentials.APIKey)
	}
	if credentials.BaseURL != "" {
		provider = provider.WithBaseURL(credentials.BaseURL)
	}
	return provider, nil
}

// newCache connects to Redis when an address is configured and keeps values
// in process memory otherwise.
func newCache(ctx context.Context, cfg *config.Config) (cache.Provider, error) {
	if cfg.Cache.RedisAddr == "" {
		return inmemory.New(), nil
	}
	redisCache, err := rediscache.Dial(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	if err != nil {
		return nil, err
	}
	return redisCache, nil
}

// sweep periodically drops expired in-memory entries and idle rate
// limiters until ctx is done.
func sweep(ctx context.Context, store cache.Provider, srv *server.Server) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	memory, _ := store.(*inmemory.Cache)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if memory != nil {
				memory.Sweep()
			}
			srv.SweepLimiters(sweepInterval)
		}
	}
}
