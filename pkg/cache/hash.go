package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key builds a namespaced cache key: namespace:sha256(raw).
// Hashing keeps access tokens embedded in URLs out of key listings.
func Key(namespace, raw string) string {
	return namespace + ":" + Hash([]byte(raw))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
