// Package server exposes the content service over HTTP.
//
// Routes mirror the web client's API: JSON in, JSON out, except /api/feed,
// which streams one topic per line as soon as it is generated, and
// /api/chat and /api/generate, which stream plain text.
//
//	srv := server.New(service,
//		server.WithObserver(observer),
//		server.WithRateLimit(2, 10),
//	)
//	err := srv.Run(ctx, ":8080")
package server
