// Package ai holds the vendor-neutral request, response and stream types that
// the openai and anthropic packages translate to and from their wire formats.
//
// [Provider] covers blocking completions; [StreamProvider] adds SSE streaming
// through [ChatStream], whose [ChatStream.Text] iterator is what the record
// extractor consumes chunk by chunk.
package ai
