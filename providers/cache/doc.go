// Package cache defines the Provider interface used to keep generated content
// between requests, plus JSON helpers on top of it.
//
// Implementations live in [github.com/leofalp/antitok/providers/cache/inmemory]
// and [github.com/leofalp/antitok/providers/cache/rediscache].
package cache
