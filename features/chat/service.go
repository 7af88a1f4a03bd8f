// Package chat composes retrieved context into a grounded prompt and asks the
// completion model for an answer.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ragserver/internal/retrieval"
)

// FallbackAnswer is returned, and demanded of the model, whenever the
// retrieved context cannot support an answer.
const FallbackAnswer = "I don't know."

// ErrEmptyQuery rejects blank queries before any network call is made.
var ErrEmptyQuery = errors.New("query must not be empty")

type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (string, error)
}

type Completer interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	retriever Retriever
	completer Completer
}

func NewService(retriever Retriever, completer Completer) *Service {
	return &Service{retriever: retriever, completer: completer}
}

// GenerateAnswer answers the query from indexed context alone. When retrieval
// yields nothing above the similarity threshold, the fixed fallback is
// returned without calling the completion service at all. A non-empty model
// reply is returned verbatim; there is no post-hoc check that the model
// honoured the grounding instruction.
func (s *Service) GenerateAnswer(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}

	contextText, err := s.retriever.Retrieve(ctx, query, retrieval.DefaultTopK)
	if err != nil {
		return "", err
	}
	if contextText == "" {
		slog.InfoContext(ctx, "no grounded context, returning fallback answer")
		return FallbackAnswer, nil
	}

	return s.completer.Chat(ctx, buildPrompt(contextText, query))
}

func buildPrompt(contextText, query string) string {
	return fmt.Sprintf(`You are a helpful RAG AI assistant.

Context:
%s

Question:
%s

Answer using only the context. If answer not found, say %q.
`, contextText, query, FallbackAnswer)
}
