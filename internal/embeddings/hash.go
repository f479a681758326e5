package embeddings

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const (
	wordWeight    = 1.0
	trigramWeight = 0.5
)

// HashEmbedder is an in-process feature-hashing model. Lower-cased words and
// their character trigrams are hashed into dim signed buckets and the result
// is L2-normalised, so texts sharing vocabulary land close together. It is
// deterministic and needs no model files, which makes it the offline choice
// for development and tests.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &HashEmbedder{dim: dim}
}

// Dimension returns the length of every vector this embedder produces.
func (h *HashEmbedder) Dimension() int {
	return h.dim
}

func (h *HashEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc := make([]float64, h.dim)
	for _, word := range tokenize(text) {
		h.add(acc, "w:"+word, wordWeight)
		padded := "#" + word + "#"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			h.add(acc, "t:"+string(runes[i:i+3]), trigramWeight)
		}
	}
	vec := make(Vector, h.dim)
	for i, v := range acc {
		vec[i] = float32(v)
	}
	return Normalize(vec), nil
}

func (h *HashEmbedder) add(acc []float64, feature string, weight float64) {
	sum := xxhash.Sum64String(feature)
	idx := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
