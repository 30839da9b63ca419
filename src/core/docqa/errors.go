package docqa

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("session not found")
	ErrEmbeddingFailure  = errors.New("embedding failure")
	ErrGenerationFailure = errors.New("generation failure")
)

const (
	KindInvalidInput      = "INVALID_INPUT"
	KindNotFound          = "NOT_FOUND"
	KindEmbeddingFailure  = "EMBEDDING_FAILURE"
	KindGenerationFailure = "GENERATION_FAILURE"
	KindInternal          = "INTERNAL_ERROR"
)

// Kind returns the stable error code carried by err.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrEmbeddingFailure):
		return KindEmbeddingFailure
	case errors.Is(err, ErrGenerationFailure):
		return KindGenerationFailure
	default:
		return KindInternal
	}
}
