// Package ingest implements the full-batch ingestion sweep: load every
// document, chunk, embed and upsert into the vector index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"ragserver/internal/adapter/pinecone"
	"ragserver/internal/text"
)

// ErrNoDocuments is returned when every configured document source comes back
// empty. Ingestion never reports success for zero documents.
var ErrNoDocuments = errors.New("no documents found in data directories")

type Loader interface {
	LoadAll() (map[string]string, error)
}

type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

type Index interface {
	Upsert(ctx context.Context, vectors [][]float32, items []pinecone.Metadata, idPrefix string) error
}

type Service struct {
	loaders      []Loader
	embedder     Embedder
	index        Index
	chunkSize    int
	chunkOverlap int
}

func NewService(loaders []Loader, embedder Embedder, index Index, chunkSize, chunkOverlap int) *Service {
	return &Service{
		loaders:      loaders,
		embedder:     embedder,
		index:        index,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// BuildIndex runs one full ingestion sweep and returns a human-readable
// summary. Every call re-embeds and re-upserts the entire document set; there
// is no change detection. Chunk ids are {source name}_{ordinal}, so
// re-ingesting an unchanged document overwrites its prior records in place.
//
// Concurrent sweeps over the same corpus are not coordinated here: colliding
// ids resolve last-write-wins at the index, and serialising calls is the
// caller's responsibility.
func (s *Service) BuildIndex(ctx context.Context) (string, error) {
	// Loaders are merged in order; when two yield the same source name the
	// later loader wins. That is defined behaviour, not an accident.
	docs := make(map[string]string)
	for _, l := range s.loaders {
		part, err := l.LoadAll()
		if err != nil {
			return "", fmt.Errorf("load documents: %w", err)
		}
		for name, content := range part {
			docs[name] = content
		}
	}

	if len(docs) == 0 {
		return "", ErrNoDocuments
	}

	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		chunks := text.Chunk(docs[name], s.chunkSize, s.chunkOverlap)
		if len(chunks) == 0 {
			// An empty file is not an error, it just has nothing to index.
			slog.InfoContext(ctx, "skipping empty document", "source", name)
			continue
		}

		vectors, err := s.embedder.EmbedDocuments(ctx, chunks)
		if err != nil {
			return "", err
		}

		items := make([]pinecone.Metadata, len(chunks))
		for pos, chunk := range chunks {
			items[pos] = pinecone.Metadata{Text: chunk, Source: name}
		}
		if err := s.index.Upsert(ctx, vectors, items, name); err != nil {
			return "", err
		}
		slog.InfoContext(ctx, "document ingested", "source", name, "chunks", len(chunks))
	}

	// The count includes documents skipped for being empty: it reports what
	// was examined, not what produced vectors.
	return fmt.Sprintf("Ingested %d documents.", len(docs)), nil
}
