package docqa

import (
	"context"
	"fmt"
	"slices"
)

// Reformulator rewrites a follow-up question into one that can be understood
// without the conversation history.
type Reformulator struct {
	completer Completer
}

func NewReformulator(completer Completer) *Reformulator {
	return &Reformulator{completer: completer}
}

// Reformulate returns message unchanged when history is empty. Otherwise the
// completion output is returned verbatim.
func (r *Reformulator) Reformulate(ctx context.Context, history []Turn, message string) (string, error) {
	if len(history) == 0 {
		return message, nil
	}

	system, err := executeTemplate(contextualizeSystemTmpl, TemplateData{})
	if err != nil {
		return "", err
	}

	standalone, err := r.completer.Complete(ctx, CompletionRequest{
		System:  system,
		History: slices.Clone(history),
		User:    message,
	})
	if err != nil {
		return "", fmt.Errorf("%w: reformulating question: %w", ErrGenerationFailure, err)
	}

	return standalone, nil
}
