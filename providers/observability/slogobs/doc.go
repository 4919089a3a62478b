// Package slogobs implements observability.Provider on top of log/slog.
//
// Spans and metrics are rendered as debug log lines, which keeps the server
// dependency free of a tracing backend while still giving request-scoped
// timings. Output format and level come from ANTITOK_LOG_FORMAT and
// ANTITOK_LOG_LEVEL unless overridden with [WithFormat] and [WithLevel].
package slogobs
