package embeddings

import (
	"context"
	"errors"
	"fmt"
)

// Vector is a simple float32 slice wrapper.
type Vector []float32

// Embedder defines the embedding interface. Implementations must be safe
// for concurrent use; one instance is shared by every request.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
}

var (
	ErrEmptyEmbedding    = errors.New("backend returned empty embedding")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Probe embeds the empty string to verify the backend is reachable and
// returns the observed dimension. A positive wantDim must match it.
func Probe(ctx context.Context, e Embedder, wantDim int) (int, error) {
	vec, err := e.Embed(ctx, "")
	if err != nil {
		return 0, err
	}
	if len(vec) == 0 {
		return 0, ErrEmptyEmbedding
	}
	if wantDim > 0 && len(vec) != wantDim {
		return len(vec), fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), wantDim)
	}
	return len(vec), nil
}
