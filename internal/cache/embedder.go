package cache

import (
	"context"
	"log/slog"
	"time"

	"embed-service/internal/embeddings"
)

// CachingEmbedder serves repeated texts from a Cache before calling the model.
// Cache failures are logged and never fail the request.
type CachingEmbedder struct {
	next  embeddings.Embedder
	cache Cache
	model string
	ttl   time.Duration
	log   *slog.Logger
}

func NewCachingEmbedder(next embeddings.Embedder, c Cache, model string, ttl time.Duration, log *slog.Logger) *CachingEmbedder {
	return &CachingEmbedder{next: next, cache: c, model: model, ttl: ttl, log: log}
}

func (e *CachingEmbedder) Embed(ctx context.Context, text string) (embeddings.Vector, error) {
	key := GenerateCacheKey(e.model, text)
	if vec, err := e.cache.GetVector(ctx, key); err != nil {
		e.log.Warn("embedding cache read failed", "err", err)
	} else if vec != nil {
		e.log.Debug("embedding cache hit", "model", e.model)
		return vec, nil
	}

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.cache.SetVector(ctx, key, vec, e.ttl); err != nil {
		e.log.Warn("failed to cache embedding", "err", err)
	}
	return vec, nil
}
