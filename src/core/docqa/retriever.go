package docqa

import (
	"context"
	"fmt"
)

const DefaultTopK = 4

type Retriever struct {
	embedder Embedder
	topK     int
}

// NewRetriever returns a retriever yielding at most topK chunks. Non-positive
// values fall back to DefaultTopK.
func NewRetriever(embedder Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		topK:     topK,
	}
}

func (r *Retriever) TopK() int { return r.topK }

// Retrieve embeds query and returns the closest chunks of index. An empty
// index yields an empty result without calling the embedder.
func (r *Retriever) Retrieve(ctx context.Context, index *VectorIndex, query string) ([]ScoredChunk, error) {
	if index == nil || index.Len() == 0 {
		return []ScoredChunk{}, nil
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", ErrEmbeddingFailure, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", ErrEmbeddingFailure)
	}

	return index.Search(vec, r.topK)
}
