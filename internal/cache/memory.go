package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"embed-service/internal/embeddings"
)

type memoryEntry struct {
	vec       embeddings.Vector
	expiresAt time.Time // zero means no expiry
}

// MemoryCache is a bounded in-process LRU with per-entry expiry.
type MemoryCache struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

// NewMemoryCache creates an LRU cache holding at most size embeddings.
func NewMemoryCache(size int) (*MemoryCache, error) {
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoryCache{entries: entries, now: time.Now}, nil
}

func (c *MemoryCache) GetVector(_ context.Context, key string) (embeddings.Vector, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, nil
	}
	return copyVector(entry.vec), nil
}

func (c *MemoryCache) SetVector(_ context.Context, key string, vec embeddings.Vector, ttl time.Duration) error {
	entry := memoryEntry{vec: copyVector(vec)}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries.Add(key, entry)
	return nil
}

// Len reports the number of entries currently held.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

func (c *MemoryCache) Close() error {
	c.entries.Purge()
	return nil
}

// copyVector keeps callers from mutating cached slices.
func copyVector(v embeddings.Vector) embeddings.Vector {
	out := make(embeddings.Vector, len(v))
	copy(out, v)
	return out
}
