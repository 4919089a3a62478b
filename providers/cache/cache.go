package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Provider stores opaque values under string keys. A zero or negative ttl
// means the entry does not expire.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetJSON reads key and unmarshals it into T. A miss is returned as ErrMiss.
func GetJSON[T any](ctx context.Context, p Provider, key string) (T, error) {
	var v T
	data, err := p.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("cache: decoding %q: %w", key, err)
	}
	return v, nil
}

// SetJSON marshals value and stores it under key.
func SetJSON(ctx context.Context, p Provider, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encoding %q: %w", key, err)
	}
	return p.Set(ctx, key, data, ttl)
}
