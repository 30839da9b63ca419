package docqa_test

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"os"
	"strings"
	"sync"
	"unicode"

	"docqa/src/core/docqa"
)

const hashDim = 1024

// hashEmbedder is a deterministic bag-of-words embedder producing unit vectors.
type hashEmbedder struct {
	mu           sync.Mutex
	docCalls     int
	queryCalls   int
	batchSizes   []int
	failDocs     error
	failQuery    error
	overrideDocs func(texts []string) [][]float32
}

func (e *hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.docCalls++
	e.batchSizes = append(e.batchSizes, len(texts))
	e.mu.Unlock()

	if e.failDocs != nil {
		return nil, e.failDocs
	}
	if e.overrideDocs != nil {
		return e.overrideDocs(texts), nil
	}

	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = hashVector(t)
	}
	return vectors, nil
}

func (e *hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.queryCalls++
	e.mu.Unlock()

	if e.failQuery != nil {
		return nil, e.failQuery
	}
	return hashVector(text), nil
}

func hashVector(text string) []float32 {
	vec := make([]float32, hashDim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%hashDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// scriptedCompleter records every request and answers with respond.
type scriptedCompleter struct {
	mu       sync.Mutex
	requests []docqa.CompletionRequest
	respond  func(req docqa.CompletionRequest) (string, error)
}

func (c *scriptedCompleter) Complete(_ context.Context, req docqa.CompletionRequest) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.respond == nil {
		return "ok", nil
	}
	return c.respond(req)
}

func (c *scriptedCompleter) calls() []docqa.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]docqa.CompletionRequest(nil), c.requests...)
}

var errNotPDF = errors.New("not a pdf")

// fakePDFExtractor accepts files starting with %PDF- and treats form feeds as
// page breaks.
type fakePDFExtractor struct {
	mu    sync.Mutex
	paths []string
}

func (e *fakePDFExtractor) ExtractPages(_ context.Context, path string) ([]string, error) {
	e.mu.Lock()
	e.paths = append(e.paths, path)
	e.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	body, ok := strings.CutPrefix(string(data), "%PDF-")
	if !ok {
		return nil, errNotPDF
	}
	return strings.Split(body, "\f"), nil
}
