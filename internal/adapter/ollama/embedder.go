// Package ollama wraps the Ollama HTTP API for embeddings and chat
// completions.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const embedTimeout = 60 * time.Second

// EmbeddingError reports a failed embedding call with the endpoint that was
// hit and the underlying cause. A failed embedding is never substituted with
// a zero vector.
type EmbeddingError struct {
	Endpoint string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding service at %s: %v", e.Endpoint, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

type Embedder struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewEmbedder(baseURL, model string) *Embedder {
	return &Embedder{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: embedTimeout},
	}
}

// EmbedQuery embeds a single text. Newlines are replaced with spaces first so
// embeddings are insensitive to line breaks introduced by the pipeline.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	clean := strings.ReplaceAll(text, "\n", " ")
	url := e.baseURL + "/api/embeddings"

	reqBody := map[string]any{
		"model":  e.model,
		"prompt": clean,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &EmbeddingError{Endpoint: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &EmbeddingError{Endpoint: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &EmbeddingError{Endpoint: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &EmbeddingError{Endpoint: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &EmbeddingError{Endpoint: url, Err: err}
	}
	if len(result.Embedding) == 0 {
		return nil, &EmbeddingError{Endpoint: url, Err: errors.New("response missing 'embedding'")}
	}
	return result.Embedding, nil
}

// EmbedDocuments embeds each text with one call per text, preserving input
// order in the result.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := e.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}
