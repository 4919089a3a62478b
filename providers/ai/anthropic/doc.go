// Package anthropic is the ai.Provider for Anthropic's Messages API.
//
// [New] reads ANTHROPIC_API_KEY and ANTHROPIC_API_BASE_URL. Requests carry the
// key in x-api-key together with a pinned anthropic-version header, and
// default max_tokens to 4096 since the API requires it.
package anthropic
