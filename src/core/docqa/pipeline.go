package docqa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docqa/src/fsutil"
	"docqa/src/log"
	"docqa/src/metrics"
)

const (
	DefaultUploadDir = "/tmp/pdf_uploads"

	pageSeparator = "\n\n"
)

type PipelineConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	TopK               int
	Metric             Metric
	EmbeddingBatchSize int
	AnswerLanguage     string
	UploadDir          string
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize:          DefaultChunkSize,
		ChunkOverlap:       DefaultChunkOverlap,
		TopK:               DefaultTopK,
		Metric:             MetricL2,
		EmbeddingBatchSize: DefaultEmbeddingBatchSize,
		UploadDir:          DefaultUploadDir,
	}
}

// PipelineDeps are the collaborators of a Pipeline. Store may be nil, in which
// case the pipeline owns a fresh SessionStore.
type PipelineDeps struct {
	Extractor TextExtractor
	Embedder  Embedder
	Completer Completer
	Files     fsutil.FileStore
	Store     *SessionStore
}

// Pipeline runs the upload and query flows. It holds no per-request state and
// is safe for concurrent use.
type Pipeline struct {
	chunker      *Chunker
	builder      *IndexBuilder
	store        *SessionStore
	reformulator *Reformulator
	retriever    *Retriever
	synthesizer  *Synthesizer
	extractor    TextExtractor
	files        fsutil.FileStore
	uploadDir    string
}

func NewPipeline(cfg PipelineConfig, deps PipelineDeps, opts ...IndexOption) (*Pipeline, error) {
	switch {
	case deps.Extractor == nil:
		return nil, errors.New("pipeline requires a text extractor")
	case deps.Embedder == nil:
		return nil, errors.New("pipeline requires an embedder")
	case deps.Completer == nil:
		return nil, errors.New("pipeline requires a completer")
	case deps.Files == nil:
		return nil, errors.New("pipeline requires a file store")
	}

	chunker := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err := chunker.validate(); err != nil {
		return nil, err
	}

	if cfg.UploadDir == "" {
		cfg.UploadDir = DefaultUploadDir
	}
	if err := deps.Files.MakeDirectory(cfg.UploadDir); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	store := deps.Store
	if store == nil {
		store = NewSessionStore()
	}

	builderOpts := append([]IndexOption{
		WithBatchSize(cfg.EmbeddingBatchSize),
		WithMetric(cfg.Metric),
	}, opts...)

	return &Pipeline{
		chunker:      chunker,
		builder:      NewIndexBuilder(deps.Embedder, builderOpts...),
		store:        store,
		reformulator: NewReformulator(deps.Completer),
		retriever:    NewRetriever(deps.Embedder, cfg.TopK),
		synthesizer:  NewSynthesizer(deps.Completer, WithAnswerLanguage(cfg.AnswerLanguage)),
		extractor:    deps.Extractor,
		files:        deps.Files,
		uploadDir:    cfg.UploadDir,
	}, nil
}

func (p *Pipeline) Store() *SessionStore { return p.store }
func (p *Pipeline) UploadDir() string    { return p.uploadDir }

// Upload stores body in a scoped temporary file, extracts its text and indexes
// it into a new session. The temporary file is removed on every path.
func (p *Pipeline) Upload(ctx context.Context, filename string, body io.Reader) (*Session, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return nil, fmt.Errorf("%w: only PDF files are supported, got %q", ErrInvalidInput, filename)
	}

	tmpPath := filepath.Join(p.uploadDir, uuid.NewString()+".pdf")
	defer func() {
		if err := p.files.Remove(tmpPath); err != nil {
			log.FromContext(ctx).Error(err, "failed to remove temporary upload", "path", tmpPath)
		}
	}()

	n, err := p.files.WriteFile(tmpPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %q is empty", ErrInvalidInput, filename)
	}

	doc, err := p.Extract(ctx, filepath.Base(filename), tmpPath)
	if err != nil {
		return nil, err
	}

	return p.Ingest(ctx, doc)
}

// Extract reads the text of the file at path. A file without any text is
// rejected.
func (p *Pipeline) Extract(ctx context.Context, source, path string) (doc Document, err error) {
	defer observe("upload", "extract", time.Now(), &err)

	pages, err := p.extractor.ExtractPages(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Document{}, ctxErr
		}
		return Document{}, fmt.Errorf("%w: could not read %q: %w", ErrInvalidInput, source, err)
	}

	text := strings.ToValidUTF8(strings.Join(pages, pageSeparator), "\uFFFD")
	if strings.TrimSpace(text) == "" {
		return Document{}, fmt.Errorf("%w: no text could be extracted from %q", ErrInvalidInput, source)
	}

	return Document{Source: source, Text: text}, nil
}

// Ingest chunks and indexes doc, then registers the index as a new session.
// Nothing is stored when any step fails.
func (p *Pipeline) Ingest(ctx context.Context, doc Document) (*Session, error) {
	chunks, err := p.chunk(doc)
	if err != nil {
		return nil, err
	}

	index, err := p.embed(ctx, chunks)
	if err != nil {
		log.FromContext(ctx).Error(err, "failed to index document", "source", doc.Source, "chunks", len(chunks))
		return nil, err
	}

	session, err := p.store.Create(doc.Source, index)
	if err != nil {
		return nil, err
	}
	metrics.Sessions.Set(float64(p.store.Len()))

	log.FromContext(ctx).Info("document indexed",
		"session_id", session.ID,
		"source", doc.Source,
		"chunks", index.Len(),
		"dimension", index.Dimension())

	return session, nil
}

func (p *Pipeline) chunk(doc Document) (chunks []Chunk, err error) {
	defer observe("upload", "chunk", time.Now(), &err)
	return p.chunker.Split(doc.Text)
}

func (p *Pipeline) embed(ctx context.Context, chunks []Chunk) (index *VectorIndex, err error) {
	defer observe("upload", "embed", time.Now(), &err)
	return p.builder.Build(ctx, chunks)
}

// Query answers q against its session. Stages run in order and the first
// failure aborts the query.
func (p *Pipeline) Query(ctx context.Context, q Query) (*Answer, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	session, err := p.store.Lookup(q.SessionID)
	if err != nil {
		return nil, err
	}

	standalone, err := p.reformulate(ctx, q)
	if err != nil {
		return nil, err
	}

	hits, err := p.retrieve(ctx, session.Index, standalone)
	if err != nil {
		return nil, err
	}

	text, err := p.synthesize(ctx, hits, q.Message)
	if err != nil {
		return nil, err
	}

	log.FromContext(ctx).V(1).Info("query answered",
		"session_id", session.ID,
		"history", len(q.History),
		"standalone", standalone,
		"hits", len(hits))

	return &Answer{
		Text:            text,
		StandaloneQuery: standalone,
		Sources:         hits,
	}, nil
}

func (p *Pipeline) reformulate(ctx context.Context, q Query) (standalone string, err error) {
	defer observe("query", "reformulate", time.Now(), &err)
	return p.reformulator.Reformulate(ctx, q.History, q.Message)
}

func (p *Pipeline) retrieve(ctx context.Context, index *VectorIndex, query string) (hits []ScoredChunk, err error) {
	defer observe("query", "retrieve", time.Now(), &err)
	return p.retriever.Retrieve(ctx, index, query)
}

func (p *Pipeline) synthesize(ctx context.Context, hits []ScoredChunk, question string) (answer string, err error) {
	defer observe("query", "synthesize", time.Now(), &err)
	return p.synthesizer.Synthesize(ctx, hits, question)
}

func observe(pipeline, stage string, start time.Time, errp *error) {
	outcome := "ok"
	if *errp != nil {
		outcome = strings.ToLower(Kind(*errp))
	}
	metrics.ObserveStage(pipeline, stage, outcome, time.Since(start))
}
