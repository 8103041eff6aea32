// Package cache provides the analysis result cache. Analyses are keyed
// per (blockchain, contract) and expire after the configured TTL.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Service is the cache surface the analyzer uses. Get decodes the stored
// value into dest; a miss returns ErrCacheMiss.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
