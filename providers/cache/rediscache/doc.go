// Package rediscache implements [cache.Provider] on Redis using go-redis.
// Keys are prefixed with DefaultPrefix unless WithPrefix says otherwise, and
// expiry is delegated to Redis TTLs.
package rediscache
