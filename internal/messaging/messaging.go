package messaging

import "embed-service/internal/embeddings"

// Reply carries either a non-empty embedding or an error message. Requests
// use the HTTP body shape, {"text": "..."}.
type Reply struct {
	ID        string            `json:"id"`
	Embedding embeddings.Vector `json:"embedding,omitempty"`
	Error     string            `json:"error,omitempty"`
}
