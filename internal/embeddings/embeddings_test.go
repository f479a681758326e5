package embeddings

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vector
		expected float32
	}{
		{
			name:     "identical vectors",
			a:        Vector{1, 0, 0},
			b:        Vector{1, 0, 0},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        Vector{1, 0},
			b:        Vector{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        Vector{1, 0},
			b:        Vector{-1, 0},
			expected: -1.0,
		},
		{
			name:     "empty vectors",
			a:        Vector{},
			b:        Vector{},
			expected: 0.0,
		},
		{
			name:     "different length vectors",
			a:        Vector{1, 2},
			b:        Vector{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "zero vector",
			a:        Vector{0, 0},
			b:        Vector{1, 1},
			expected: 0.0,
		},
		{
			name:     "normalized vectors 45 degrees",
			a:        Vector{1, 0},
			b:        Vector{0.707, 0.707},
			expected: 0.707,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(result-tt.expected)) > 0.01 {
				t.Errorf("got %f, want %f", result, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		out := Normalize(Vector{3, 4})
		assert.InDelta(t, 0.6, out[0], 1e-6)
		assert.InDelta(t, 0.8, out[1], 1e-6)
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		out := Normalize(Vector{0, 0, 0})
		assert.Equal(t, Vector{0, 0, 0}, out)
	})

	t.Run("input not mutated", func(t *testing.T) {
		in := Vector{3, 4}
		_ = Normalize(in)
		assert.Equal(t, Vector{3, 4}, in)
	})
}

func TestNormalizingEmbedder(t *testing.T) {
	ctx := context.Background()
	inner := new(MockEmbedder)
	inner.On("Embed", mock.Anything, "hello").Return(Vector{0, 2}, nil).Once()
	inner.On("Embed", mock.Anything, "boom").Return(nil, errors.New("backend down")).Once()

	e := NewNormalizing(inner)

	vec, err := e.Embed(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, Vector{0, 1}, vec)

	_, err = e.Embed(ctx, "boom")
	assert.Error(t, err)

	inner.AssertExpectations(t)
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		vec     Vector
		err     error
		wantDim int
		gotDim  int
		wantErr error
	}{
		{name: "matching dimension", vec: make(Vector, 384), wantDim: 384, gotDim: 384},
		{name: "dimension check disabled", vec: make(Vector, 768), wantDim: 0, gotDim: 768},
		{name: "dimension mismatch", vec: make(Vector, 768), wantDim: 384, gotDim: 768, wantErr: ErrDimensionMismatch},
		{name: "empty embedding", vec: Vector{}, wantDim: 384, wantErr: ErrEmptyEmbedding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockEmbedder)
			m.On("Embed", mock.Anything, "").Return(tt.vec, tt.err).Once()

			dim, err := Probe(context.Background(), m, tt.wantDim)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.gotDim, dim)
			m.AssertExpectations(t)
		})
	}

	t.Run("backend error", func(t *testing.T) {
		m := new(MockEmbedder)
		m.On("Embed", mock.Anything, "").Return(nil, errors.New("connection refused")).Once()
		_, err := Probe(context.Background(), m, 384)
		assert.EqualError(t, err, "connection refused")
	})
}
