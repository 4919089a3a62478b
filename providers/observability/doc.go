// Package observability defines the tracing, metrics and logging interfaces
// used across antitok, plus the attribute, span and metric names they share.
//
// Components never depend on a concrete backend: the HTTP server and the LLM
// client store a [Provider] and the current [Span] in the request context, and
// deeper layers (providers, the record extractor hooks in the content service)
// pick them up with [ObserverFromContext] and [SpanFromContext]. The slogobs
// subpackage is the default backend.
package observability
