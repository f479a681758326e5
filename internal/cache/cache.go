package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"embed-service/internal/embeddings"
)

// Cache memoises embeddings for (model, text) pairs. Entries are bounded by a
// TTL; the cache is never the source of truth for a vector.
type Cache interface {
	// GetVector retrieves a cached embedding by key
	// Returns nil if not found
	GetVector(ctx context.Context, key string) (embeddings.Vector, error)

	// SetVector stores an embedding with TTL
	SetVector(ctx context.Context, key string, vec embeddings.Vector, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// GenerateCacheKey derives a stable key from the model name and input text.
func GenerateCacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
