// Package openai is the ai.Provider for OpenAI and compatible
// /chat/completions endpoints (Azure, OpenRouter, Ollama and the like).
//
// [New] reads OPENAI_API_KEY and OPENAI_API_BASE_URL. [OpenAIProvider.StreamMessage]
// streams deltas over SSE until the [DONE] sentinel.
package openai
