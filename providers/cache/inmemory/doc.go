// Package inmemory is a process-local [cache.Provider]. It is the default
// when no Redis address is configured.
package inmemory
