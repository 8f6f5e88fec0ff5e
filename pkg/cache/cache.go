// Package cache stores fetched capabilities documents.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entry files under ~/.cache/wmscap/, used by the CLI
//   - [RedisCache]: shared storage for proxy server replicas
//   - [NullCache]: caching disabled
//
// Keys are arbitrary strings, usually the upstream URL passed through
// [Key] with a namespace such as "capabilities" or "proxy". Entries carry
// their own TTL; a zero TTL never expires.
//
// The capabilities client itself never caches. Callers decide whether a
// stale document is acceptable.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the data for key. A miss (absent or expired) is
	// (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
