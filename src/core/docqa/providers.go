package docqa

import "context"

// TextExtractor turns a file on disk into the plain text of its pages.
type TextExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

// Embedder maps text to vectors. Documents and queries must be embedded by
// the same model for distances to be meaningful.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CompletionRequest is a structured prompt: a system instruction, optional
// prior turns and the current user turn.
type CompletionRequest struct {
	System  string
	History []Turn
	User    string
}

// Completer produces a single text completion.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Pinger is implemented by providers that can report their availability.
type Pinger interface {
	Ping(ctx context.Context) error
}
