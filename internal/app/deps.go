package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"embed-service/internal/cache"
	"embed-service/internal/config"
	"embed-service/internal/embeddings"
	"embed-service/internal/logger"
	"embed-service/internal/retry"
)

// Deps bundles the runtime dependencies of the service. The embedder is
// built once and shared read-only by every request.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Embedder embeddings.Embedder
	Cache    cache.Cache
	NATS     *nats.Conn // nil when NATS_URL is unset
}

// Build loads env, config, and shared components, and blocks until the
// embedding backend answers a probe.
func Build(ctx context.Context) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return Deps{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Deps{}, err
	}
	log := logger.New(cfg.LogLevel)

	base, err := buildEmbedder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	if err := warmup(ctx, cfg, log, base); err != nil {
		return Deps{}, fmt.Errorf("embedding model unavailable: %w", err)
	}

	c, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	deps := Deps{
		Config:   cfg,
		Log:      log,
		Embedder: Decorate(cfg, log, base, c),
		Cache:    c,
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("embed-service"))
		if err != nil {
			_ = c.Close()
			return Deps{}, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS responder", "subject", cfg.NATSSubject)
		deps.NATS = nc
	}
	return deps, nil
}

// Close releases the cache and the NATS connection.
func (d Deps) Close() error {
	var errs []error
	if d.NATS != nil {
		if err := d.NATS.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("drain nats: %w", err))
		}
	}
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Decorate layers normalisation and caching over the base model. Cached
// vectors are stored after normalisation.
func Decorate(cfg config.Config, log *slog.Logger, base embeddings.Embedder, c cache.Cache) embeddings.Embedder {
	e := base
	if cfg.EmbeddingNormalize {
		e = embeddings.NewNormalizing(e)
	}
	if cfg.CacheProvider != "none" && c != nil {
		e = cache.NewCachingEmbedder(e, c, cfg.EmbeddingModel, cfg.CacheTTLDuration(), log)
	}
	return e
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "openai":
		embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		log.Info("using OpenAI-compatible embedder", "model", cfg.EmbeddingModel, "base_url", cfg.OpenAIBaseURL)
		return embedder, nil
	case "ollama":
		log.Info("using Ollama embedder", "model", cfg.EmbeddingModel, "host", cfg.OllamaHost)
		return embeddings.NewOllamaEmbedder(cfg.OllamaHost, cfg.EmbeddingModel), nil
	case "hash":
		log.Info("using local hash embedder", "dim", cfg.EmbeddingDim)
		return embeddings.NewHashEmbedder(cfg.EmbeddingDim), nil
	default:
		return nil, fmt.Errorf("invalid EMBEDDING_PROVIDER: %s (valid options: openai, ollama, hash)", cfg.EmbeddingProvider)
	}
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "none":
		return cache.NewNoOpCache(), nil
	case "memory":
		c, err := cache.NewMemoryCache(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		log.Info("using in-memory embedding cache", "size", cfg.CacheSize, "ttl", cfg.CacheTTLDuration())
		return c, nil
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		log.Info("using Redis embedding cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTLDuration())
		return c, nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: none, memory, redis)", cfg.CacheProvider)
	}
}

// warmup probes the model with retries. A dimension mismatch is permanent
// and is not retried.
func warmup(ctx context.Context, cfg config.Config, log *slog.Logger, e embeddings.Embedder) error {
	var dim int
	err := retry.Do(ctx, cfg.WarmupAttempts, cfg.WarmupBackoff, func(ctx context.Context) error {
		d, err := embeddings.Probe(ctx, e, cfg.EmbeddingDim)
		if errors.Is(err, embeddings.ErrDimensionMismatch) {
			dim = d
			return nil
		}
		if err != nil {
			log.Warn("embedding model probe failed", "err", err)
			return err
		}
		dim = d
		return nil
	})
	if err != nil {
		return err
	}
	if cfg.EmbeddingDim > 0 && dim != cfg.EmbeddingDim {
		return fmt.Errorf("%w: model %s returns %d, EMBEDDING_DIM is %d", embeddings.ErrDimensionMismatch, cfg.EmbeddingModel, dim, cfg.EmbeddingDim)
	}
	log.Info("embedding model ready", "model", cfg.EmbeddingModel, "dim", dim)
	return nil
}
