// Package cache provides the namespaced key-value caches that keep
// municipality codes and cadastre pages between runs.
package cache

import (
	"context"
	"time"
)

// Store is the persistent backend of one cache namespace.
type Store interface {
	// Get returns the stored value, or nil when the key is missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores val under key. A zero ttl never expires.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Close() error
}
