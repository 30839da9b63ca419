package docqa

import (
	"fmt"
	"strings"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunker splits text into fixed-size windows measured in runes. Consecutive
// chunks share exactly overlap runes, and the last chunk ends at the end of
// the text.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	return &Chunker{
		size:    size,
		overlap: overlap,
	}
}

// Split returns the chunks of text in document order. Invalid UTF-8 bytes are
// read as U+FFFD.
func (c *Chunker) Split(text string) ([]Chunk, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}

	runes := []rune(text)
	n := len(runes)
	step := c.size - c.overlap

	chunks := make([]Chunk, 0, n/step+1)
	for start := 0; ; start += step {
		end := min(start+c.size, n)

		overlap := 0
		if start > 0 {
			overlap = c.overlap
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Text:    string(runes[start:end]),
			Start:   start,
			Overlap: overlap,
		})

		if end == n {
			break
		}
	}

	return chunks, nil
}

func (c *Chunker) validate() error {
	switch {
	case c.size <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidInput, c.size)
	case c.overlap < 0:
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidInput, c.overlap)
	case c.overlap >= c.size:
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidInput, c.overlap, c.size)
	}
	return nil
}

// Reassemble concatenates chunks, dropping the overlapped prefix of every
// chunk after the first.
func Reassemble(chunks []Chunk) string {
	var b strings.Builder
	for i, chunk := range chunks {
		if i == 0 {
			b.WriteString(chunk.Text)
			continue
		}
		runes := []rune(chunk.Text)
		if chunk.Overlap >= len(runes) {
			continue
		}
		b.WriteString(string(runes[chunk.Overlap:]))
	}
	return b.String()
}
