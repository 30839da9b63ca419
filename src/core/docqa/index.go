package docqa

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
)

const DefaultEmbeddingBatchSize = 16

// Metric is the distance function of a VectorIndex.
type Metric string

const (
	// MetricL2 is the squared Euclidean distance.
	MetricL2 Metric = "l2"
	// MetricCosine is one minus the cosine similarity.
	MetricCosine Metric = "cosine"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case "", MetricL2:
		return MetricL2, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("%w: unknown distance metric %q", ErrInvalidInput, s)
	}
}

// Distance assumes len(a) == len(b).
func (m Metric) Distance(a, b []float32) float64 {
	if m == MetricCosine {
		var dot, na, nb float64
		for i := range a {
			x, y := float64(a[i]), float64(b[i])
			dot += x * y
			na += x * x
			nb += y * y
		}
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

type indexEntry struct {
	chunk  Chunk
	vector []float32
}

// VectorIndex is an ordered, immutable set of chunk embeddings searched by
// exhaustive distance computation.
type VectorIndex struct {
	entries []indexEntry
	dim     int
	metric  Metric
}

// NewVectorIndex pairs chunks with their vectors. Every vector must be non-empty
// and share one dimension.
func NewVectorIndex(chunks []Chunk, vectors [][]float32, metric Metric) (*VectorIndex, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingFailure, len(vectors), len(chunks))
	}
	if metric == "" {
		metric = MetricL2
	}

	idx := &VectorIndex{
		entries: make([]indexEntry, len(chunks)),
		metric:  metric,
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("%w: empty vector for chunk %d", ErrEmbeddingFailure, chunks[i].Index)
		}
		if i == 0 {
			idx.dim = len(vec)
		} else if len(vec) != idx.dim {
			return nil, fmt.Errorf("%w: chunk %d has dimension %d, expected %d", ErrEmbeddingFailure, chunks[i].Index, len(vec), idx.dim)
		}
		idx.entries[i] = indexEntry{chunk: chunks[i], vector: slices.Clone(vec)}
	}

	return idx, nil
}

func (x *VectorIndex) Len() int       { return len(x.entries) }
func (x *VectorIndex) Dimension() int { return x.dim }
func (x *VectorIndex) Metric() Metric { return x.metric }

// Chunks returns the indexed chunks in document order.
func (x *VectorIndex) Chunks() []Chunk {
	chunks := make([]Chunk, len(x.entries))
	for i, e := range x.entries {
		chunks[i] = e.chunk
	}
	return chunks
}

// Search returns at most k chunks ordered by ascending distance to query.
// Equal distances keep document order.
func (x *VectorIndex) Search(query []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidInput, k)
	}
	if len(x.entries) == 0 {
		return []ScoredChunk{}, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", ErrEmbeddingFailure, len(query), x.dim)
	}

	hits := make([]ScoredChunk, len(x.entries))
	for i, e := range x.entries {
		hits[i] = ScoredChunk{Chunk: e.chunk, Distance: x.metric.Distance(query, e.vector)}
	}
	slices.SortStableFunc(hits, func(a, b ScoredChunk) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	return hits[:min(k, len(hits))], nil
}

// IndexBuilder embeds chunks and assembles a VectorIndex.
type IndexBuilder struct {
	embedder  Embedder
	batchSize int
	metric    Metric
	progress  func(done, total int)
}

type IndexOption func(b *IndexBuilder)

func WithBatchSize(n int) IndexOption {
	return func(b *IndexBuilder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

func WithMetric(m Metric) IndexOption {
	return func(b *IndexBuilder) {
		b.metric = m
	}
}

// WithProgress registers a callback invoked after every embedded batch.
func WithProgress(fn func(done, total int)) IndexOption {
	return func(b *IndexBuilder) {
		b.progress = fn
	}
}

func NewIndexBuilder(embedder Embedder, opts ...IndexOption) *IndexBuilder {
	b := &IndexBuilder{
		embedder:  embedder,
		batchSize: DefaultEmbeddingBatchSize,
		metric:    MetricL2,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *IndexBuilder) Build(ctx context.Context, chunks []Chunk) (*VectorIndex, error) {
	vectors := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += b.batchSize {
		end := min(start+b.batchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		batch, err := b.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding chunks %d-%d: %w", ErrEmbeddingFailure, start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d chunks", ErrEmbeddingFailure, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)

		if b.progress != nil {
			b.progress(end, len(chunks))
		}
	}

	return NewVectorIndex(chunks, vectors, b.metric)
}
