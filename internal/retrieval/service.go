// Package retrieval turns a user query into the context passages that ground
// an answer.
package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ragserver/internal/middleware"
)

// SimilarityThreshold is the hard score cutoff below which a match is
// discarded. It is not a soft re-rank: matches under the threshold are
// dropped even when that leaves no context at all.
const SimilarityThreshold = 0.75

// DefaultTopK is the number of nearest neighbours requested per query.
const DefaultTopK = 3

// Match is one scored result from the vector index. Score is on the
// provider's native [0,1] similarity scale.
type Match struct {
	Score  float32
	Text   string
	Source string
}

type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Index interface {
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
}

type Service struct {
	embedder Embedder
	index    Index
	logger   *QueryLogger
}

func NewService(embedder Embedder, index Index, logger *QueryLogger) *Service {
	return &Service{embedder: embedder, index: index, logger: logger}
}

// Retrieve embeds the query, fetches the topK nearest chunks and joins the
// text of every match at or above SimilarityThreshold with newlines, keeping
// the order the index returned. An empty result means nothing relevant was
// indexed; it is a normal outcome, not an error.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) (string, error) {
	start := time.Now()

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", err
	}

	matches, err := s.index.Query(ctx, vec, topK)
	if err != nil {
		return "", err
	}

	var texts []string
	for _, m := range matches {
		if m.Score < SimilarityThreshold {
			continue
		}
		// Records without usable text metadata are skipped, not fatal.
		if m.Text == "" {
			continue
		}
		texts = append(texts, m.Text)
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         query,
			NumMatches:    len(matches),
			NumKept:       len(texts),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	if len(texts) == 0 {
		slog.InfoContext(ctx, "no context above similarity threshold", "matches", len(matches))
		return "", nil
	}
	return strings.Join(texts, "\n"), nil
}
