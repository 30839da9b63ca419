package docqa

import (
	"context"
	"fmt"
	"strings"
)

const contextSeparator = "\n\n"

// Synthesizer answers a question from retrieved chunks only.
type Synthesizer struct {
	completer Completer
	language  string
}

type SynthesizerOption func(s *Synthesizer)

// WithAnswerLanguage pins the answer language. By default the answer follows
// the language of the question.
func WithAnswerLanguage(language string) SynthesizerOption {
	return func(s *Synthesizer) {
		s.language = strings.TrimSpace(language)
	}
}

func NewSynthesizer(completer Completer, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{completer: completer}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Synthesize answers question, which must be the user's original wording,
// using chunks in the order given.
func (s *Synthesizer) Synthesize(ctx context.Context, chunks []ScoredChunk, question string) (string, error) {
	system, err := executeTemplate(answerSystemTmpl, TemplateData{
		Context:  BuildContext(chunks),
		Language: s.language,
	})
	if err != nil {
		return "", err
	}

	answer, err := s.completer.Complete(ctx, CompletionRequest{
		System: system,
		User:   question,
	})
	if err != nil {
		return "", fmt.Errorf("%w: synthesizing answer: %w", ErrGenerationFailure, err)
	}

	return answer, nil
}

// BuildContext joins chunk texts in retrieval order.
func BuildContext(chunks []ScoredChunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Chunk.Text
	}
	return strings.Join(texts, contextSeparator)
}
