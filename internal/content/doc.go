// Package content generates the facts, explanations and learning material
// served by the API. Each operation fills a prompt template, calls the model
// through a [client.Client] and turns the answer into typed values.
//
// The feed is streamed: [Service.StreamFeed] runs the model output through
// the incremental extractor so every topic reaches the caller as soon as its
// JSON object closes.
package content
