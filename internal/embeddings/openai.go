package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings API. With a base URL
// it targets a self-hosted server (text-embeddings-inference, infinity, vLLM)
// serving a sentence-transformers model such as all-MiniLM-L6-v2.
type OpenAIEmbedder struct {
	model   string
	client  *openai.Client
	timeout time.Duration
}

const defaultEmbeddingTimeout = 30 * time.Second

// NewOpenAIEmbedder creates a new OpenAI embedder. apiKey may be empty when
// baseURL points at a server that does not authenticate.
func NewOpenAIEmbedder(apiKey, baseURL, model string, opts ...option.RequestOption) (*OpenAIEmbedder, error) {
	if apiKey == "" && baseURL == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	reqOpts = append(reqOpts, opts...)
	cli := openai.NewClient(reqOpts...)
	return &OpenAIEmbedder{
		model:   model,
		client:  &cli,
		timeout: defaultEmbeddingTimeout,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	// Convert []float64 to []float32
	embedding := resp.Data[0].Embedding
	vec := make(Vector, len(embedding))
	for i, v := range embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
