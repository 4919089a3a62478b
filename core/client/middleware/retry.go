package middleware

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/leofalp/antitok/core/client"
	"github.com/leofalp/antitok/providers/ai"
)

// RetryConfig tunes NewRetryMiddleware. Zero fields take the defaults shown.
type RetryConfig struct {
	MaxRetries     int           // 3; the provider is called at most MaxRetries+1 times
	InitialBackoff time.Duration // 1s
	MaxBackoff     time.Duration // 30s
	BackoffFactor  float64       // 2.0
	JitterFraction float64       // 0.1, added on top of the backoff

	// RetryableFunc decides whether err deserves another attempt. The default
	// looks for 429, 500, 502, 503 or 529 in the error text, which is where
	// the HTTP helpers put the status code.
	RetryableFunc func(error) bool
}

func defaultRetryableFunc(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, code := range []string{"429", "500", "502", "503", "529"} {
		if strings.Contains(msg, "status "+code) {
			return true
		}
	}
	return false
}

func (config *RetryConfig) applyDefaults() {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}
	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}
	if config.RetryableFunc == nil {
		config.RetryableFunc = defaultRetryableFunc
	}
}

// backoff is min(InitialBackoff * BackoffFactor^attempt, MaxBackoff) plus jitter.
func (config RetryConfig) backoff(attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	base = math.Min(base, float64(config.MaxBackoff))
	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // jitter needs no crypto
	return time.Duration(base + jitter)
}

// NewRetryMiddleware retries blocking calls that fail with a transient error.
// Streams are not retried: records may already have reached the client.
func NewRetryMiddleware(config RetryConfig) client.MiddlewareConfig {
	config.applyDefaults()

	send := func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			var lastErr error

			for attempt := 0; attempt <= config.MaxRetries; attempt++ {
				if attempt > 0 {
					timer := time.NewTimer(config.backoff(attempt - 1))
					select {
					case <-ctx.Done():
						timer.Stop()
						return nil, ctx.Err()
					case <-timer.C:
					}
				}

				response, err := next(ctx, request)
				if err == nil {
					return response, nil
				}
				if !config.RetryableFunc(err) {
					return nil, err
				}
				lastErr = err
			}

			return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
		}
	}

	return client.MiddlewareConfig{Send: send}
}
