package pinecone

import (
	"context"
	"fmt"
	"strings"

	"ragserver/internal/retrieval"
)

// Index is a handle to one provisioned index on its data plane host.
type Index struct {
	client *Client
	name   string
	host   string
}

func (i *Index) Name() string { return i.name }

func (i *Index) baseURL() string {
	if strings.Contains(i.host, "://") {
		return strings.TrimSuffix(i.host, "/")
	}
	return "https://" + i.host
}

// Metadata is carried on every stored vector and returned with query matches.
type Metadata struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type vectorRecord struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata Metadata  `json:"metadata"`
}

// Upsert writes one record per (vector, metadata) pair with ids
// "{idPrefix}_{position}". Re-ingesting the same document overwrites records
// at matching ordinals rather than duplicating them. Ordinals left over from
// an earlier run with more chunks are not purged.
func (i *Index) Upsert(ctx context.Context, vectors [][]float32, items []Metadata, idPrefix string) error {
	records := make([]vectorRecord, 0, len(items))
	for pos, meta := range items {
		records = append(records, vectorRecord{
			ID:       fmt.Sprintf("%s_%d", idPrefix, pos),
			Values:   vectors[pos],
			Metadata: meta,
		})
	}

	body := map[string]any{"vectors": records}
	if err := i.client.do(ctx, "POST", i.baseURL()+"/vectors/upsert", body, nil); err != nil {
		return &ServiceError{Op: "upsert", Err: err}
	}
	return nil
}

// Query runs nearest-neighbour search and returns up to topK matches with
// their metadata, in the provider's own ranking order. The order is preserved
// as-is; no local re-sort.
func (i *Index) Query(ctx context.Context, vector []float32, topK int) ([]retrieval.Match, error) {
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}

	var result struct {
		Matches []struct {
			ID       string    `json:"id"`
			Score    float32   `json:"score"`
			Metadata *Metadata `json:"metadata"`
		} `json:"matches"`
	}
	if err := i.client.do(ctx, "POST", i.baseURL()+"/query", body, &result); err != nil {
		return nil, &ServiceError{Op: "query", Err: err}
	}

	matches := make([]retrieval.Match, 0, len(result.Matches))
	for _, m := range result.Matches {
		match := retrieval.Match{Score: m.Score}
		if m.Metadata != nil {
			match.Text = m.Metadata.Text
			match.Source = m.Metadata.Source
		}
		matches = append(matches, match)
	}
	return matches, nil
}
