package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds runtime configuration. Every field has a default so the
// service starts with no environment at all.
type Config struct {
	// Server
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8081" validate:"min=1,max=65535"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"0" validate:"min=0"` // 0 means unlimited
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Embedding model
	EmbeddingProvider  string `env:"EMBEDDING_PROVIDER" envDefault:"openai" validate:"oneof=openai ollama hash"`
	EmbeddingModel     string `env:"EMBEDDING_MODEL" envDefault:"all-MiniLM-L6-v2" validate:"required"`
	EmbeddingDim       int    `env:"EMBEDDING_DIM" envDefault:"384" validate:"min=0"` // 0 skips the startup dimension check
	EmbeddingNormalize bool   `env:"EMBEDDING_NORMALIZE" envDefault:"false"`
	OpenAIKey          string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL" envDefault:"http://localhost:8000/v1" validate:"omitempty,url"`
	OllamaHost         string `env:"OLLAMA_HOST" envDefault:"http://localhost:11434" validate:"omitempty,url"`

	// Startup probe
	WarmupAttempts int           `env:"WARMUP_ATTEMPTS" envDefault:"5" validate:"min=1"`
	WarmupBackoff  time.Duration `env:"WARMUP_BACKOFF" envDefault:"500ms"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none" validate:"oneof=none memory redis"`
	CacheSize     int    `env:"CACHE_SIZE" envDefault:"4096" validate:"min=1"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600" validate:"min=0"` // seconds
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379" validate:"required_if=CacheProvider redis"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// NATS request/reply, disabled when NATSURL is empty
	NATSURL        string `env:"NATS_URL"`
	NATSSubject    string `env:"NATS_SUBJECT" envDefault:"embed" validate:"required_with=NATSURL"`
	NATSQueueGroup string `env:"NATS_QUEUE_GROUP" envDefault:"embedders"`
}

// Load reads configuration from environment variables with defaults. A
// value that fails to parse is an error rather than a silent zero.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse env: %w", err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and provider-specific requirements.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.EmbeddingProvider == "openai" && c.OpenAIBaseURL == "" && c.OpenAIKey == "" {
		return fmt.Errorf("invalid config: OPENAI_API_KEY is required when OPENAI_BASE_URL is empty")
	}
	if c.EmbeddingProvider == "ollama" && c.OllamaHost == "" {
		return fmt.Errorf("invalid config: OLLAMA_HOST is required when EMBEDDING_PROVIDER=ollama")
	}
	if c.EmbeddingProvider == "hash" && c.EmbeddingDim == 0 {
		return fmt.Errorf("invalid config: EMBEDDING_DIM must be set when EMBEDDING_PROVIDER=hash")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// CacheTTLDuration converts CacheTTL seconds into a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}
