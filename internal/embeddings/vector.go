package embeddings

import (
	"context"
	"math"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Empty, mismatched, or zero-magnitude inputs yield 0.
func CosineSimilarity(a, b Vector) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Normalize returns an L2-normalised copy of v. A zero vector is returned unchanged.
func Normalize(v Vector) Vector {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make(Vector, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

type normalizing struct {
	next Embedder
}

// NewNormalizing wraps e so every returned vector has unit length.
func NewNormalizing(e Embedder) Embedder {
	return &normalizing{next: e}
}

func (n *normalizing) Embed(ctx context.Context, text string) (Vector, error) {
	vec, err := n.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return Normalize(vec), nil
}
