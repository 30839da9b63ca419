package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tmc/langchaingo/documentloaders"

	"docqa/src/core/docqa"
	"docqa/src/fsutil"
)

var _ docqa.TextExtractor = (*Extractor)(nil)

// Extractor reads the text layer of PDF files, one string per page.
type Extractor struct {
	files    fsutil.FileStore
	password string
}

type Option func(e *Extractor)

func WithPassword(password string) Option {
	return func(e *Extractor) {
		e.password = password
	}
}

func NewExtractor(files fsutil.FileStore, opts ...Option) *Extractor {
	e := &Extractor{files: files}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Extractor) ExtractPages(ctx context.Context, path string) (pages []string, err error) {
	data, err := e.files.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	var loaderOpts []documentloaders.PDFOptions
	if e.password != "" {
		loaderOpts = append(loaderOpts, documentloaders.WithPassword(e.password))
	}

	docs, err := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)), loaderOpts...).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf: %w", err)
	}

	pages = make([]string, len(docs))
	for i, doc := range docs {
		pages[i] = doc.PageContent
	}
	return pages, nil
}
