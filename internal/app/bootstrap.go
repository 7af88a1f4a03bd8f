package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ragserver/internal/adapter/ollama"
	"ragserver/internal/adapter/pinecone"
	"ragserver/internal/config"
)

// Bootstrap constructs the remote service clients and makes sure the vector
// index exists before the server starts taking requests. Index provisioning
// can lag behind process start in a fresh deployment, so the ensure call is
// retried on a bounded schedule; the pipeline itself never retries.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	embedder := ollama.NewEmbedder(cfg.OllamaBaseURL, cfg.OllamaEmbedModel)
	completer := ollama.NewChatClient(cfg.OllamaBaseURL, cfg.OllamaChatModel)

	client := pinecone.NewClient(cfg.PineconeAPIKey)
	spec := pinecone.IndexSpec{
		Name:      cfg.PineconeIndex,
		Dimension: cfg.PineconeDimension,
		Metric:    cfg.PineconeMetric,
		Cloud:     cfg.PineconeCloud,
		Region:    cfg.PineconeRegion,
	}

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	index, err := ensureIndex(ctx, client, spec, cfg.BootstrapRetryAttempts, retryDelay)
	if err != nil {
		return nil, err
	}
	slog.Info("vector index ensured", "index", cfg.PineconeIndex)

	return &Dependencies{
		Embedder:  embedder,
		Index:     index,
		Completer: completer,
	}, nil
}

// ensureIndex retries provisioning on a bounded schedule. There is no delay
// after the final attempt, and a context cancellation cuts the wait short.
func ensureIndex(ctx context.Context, client *pinecone.Client, spec pinecone.IndexSpec, attempts int, delay time.Duration) (*pinecone.Index, error) {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		var index *pinecone.Index
		index, err = client.EnsureIndex(ctx, spec)
		if err == nil {
			return index, nil
		}
		if i == attempts-1 {
			break
		}
		slog.Warn("failed to ensure vector index, retrying...", "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("ensure vector index: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("ensure vector index: %w", err)
}
