package embeddings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidRequest marks a body that is not a JSON object or whose text
// field is not a string.
var ErrInvalidRequest = errors.New("invalid embed request")

// RequestText returns the value of the exact "text" key of a decoded JSON
// object. A missing key yields "". A nil object (JSON null) and a null or
// non-string text are rejected.
func RequestText(fields map[string]json.RawMessage) (string, error) {
	if fields == nil {
		return "", fmt.Errorf("%w: body must be a JSON object", ErrInvalidRequest)
	}
	raw, ok := fields["text"]
	if !ok {
		return "", nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", fmt.Errorf("%w: text must be a string", ErrInvalidRequest)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", fmt.Errorf("%w: text must be a string: %v", ErrInvalidRequest, err)
	}
	return text, nil
}

// ParseRequest decodes a raw JSON body and extracts its text field.
func ParseRequest(data []byte) (string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return RequestText(fields)
}
