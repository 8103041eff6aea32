// Package cache stores fetched contract artifacts (verified source,
// deployed bytecode) so repeated scans of one contract do not hit the
// block explorer again.
package cache

import "time"

// Store holds raw artifact bytes with a TTL.
type Store interface {
	Get(key string) (b []byte, ok bool, err error)
	Set(key string, value []byte, ttl time.Duration) error
}
