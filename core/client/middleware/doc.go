// Package middleware provides the stock client middlewares: timeout, retry
// with exponential backoff, and slog request logging.
//
//	c, err := client.New(provider,
//	    client.WithMiddleware(
//	        middleware.NewTimeoutMiddleware(2*time.Minute),
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 2}),
//	        middleware.NewLoggingMiddleware(slog.Default(), middleware.LogLevelStandard),
//	    ),
//	)
//
// The first middleware given is the outermost one, so above a request passes
// Timeout → Retry → Logging → provider and the answer comes back the other way.
package middleware
