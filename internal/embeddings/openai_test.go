package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, status int, embedding []float64, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if gotBody != nil {
			_ = json.NewDecoder(r.Body).Decode(gotBody)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"model not loaded","type":"server_error"}}`))
			return
		}
		data := []map[string]any{}
		if embedding != nil {
			data = append(data, map[string]any{"object": "embedding", "index": 0, "embedding": embedding})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "all-MiniLM-L6-v2",
			"usage":  map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewOpenAIEmbedderRequiresKeyOrBaseURL(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "", "all-MiniLM-L6-v2")
	assert.Error(t, err)

	e, err := NewOpenAIEmbedder("", "http://localhost:8000/v1", "all-MiniLM-L6-v2")
	require.NoError(t, err)
	assert.Equal(t, "all-MiniLM-L6-v2", e.model)

	e, err = NewOpenAIEmbedder("sk-test", "", "")
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", e.model)
}

func TestOpenAIEmbedderEmbed(t *testing.T) {
	var body map[string]any
	srv := newOpenAIServer(t, http.StatusOK, []float64{0.25, -0.5, 0.125}, &body)

	e, err := NewOpenAIEmbedder("", srv.URL+"/v1", "all-MiniLM-L6-v2", option.WithMaxRetries(0))
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, Vector{0.25, -0.5, 0.125}, vec)
	assert.Equal(t, "hello world", body["input"])
	assert.Equal(t, "all-MiniLM-L6-v2", body["model"])
}

func TestOpenAIEmbedderErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := newOpenAIServer(t, http.StatusInternalServerError, nil, nil)
		e, err := NewOpenAIEmbedder("", srv.URL+"/v1", "all-MiniLM-L6-v2", option.WithMaxRetries(0))
		require.NoError(t, err)

		_, err = e.Embed(context.Background(), "hello")
		assert.Error(t, err)
	})

	t.Run("empty data", func(t *testing.T) {
		srv := newOpenAIServer(t, http.StatusOK, nil, nil)
		e, err := NewOpenAIEmbedder("", srv.URL+"/v1", "all-MiniLM-L6-v2", option.WithMaxRetries(0))
		require.NoError(t, err)

		_, err = e.Embed(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrEmptyEmbedding)
	})
}
