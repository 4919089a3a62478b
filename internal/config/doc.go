// Package config loads service settings from defaults, an optional TOML file,
// a .env file and the environment, in that order of increasing precedence.
//
// A minimal file:
//
//	provider = "anthropic"
//	temperature = 0.7
//
//	[server]
//	addr = ":9000"
//	rate_limit = 5.0
//
//	[cache]
//	redis_addr = "localhost:6379"
//	ttl = "12h"
package config
