// Package text implements the chunking policy that prepares documents for
// embedding.
package text

import "strings"

// Chunk splits text into overlapping windows of at most chunkSize words.
// Successive windows advance by chunkSize-overlap words (minimum 1), so
// neighbouring chunks share overlap words of context. The trailing window
// carries the remainder and may be shorter; an empty chunk is never emitted.
//
// The split is pure and deterministic, which is what keeps re-ingestion ids
// stable across runs.
func Chunk(text string, chunkSize, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := chunkSize - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
