// Package parse turns raw model output into Go values.
//
// Models wrap JSON in code fences, emit almost-JSON, or answer in HTML. The
// helpers here strip fences ([CleanJSONResponse]), repair and decode JSON
// ([ParseStringAs]), split NDJSON ([Lines]) and normalise HTML answers to
// Markdown ([ToMarkdown]).
package parse
