package docqa

import (
	"bytes"
	"fmt"
	"text/template"
)

const (
	ContextualizeSystemMessageTmpl = `Given a chat history and the latest user question, formulate a standalone question.`

	AnswerSystemMessageTmpl = `Answer the user's question based on the below context.
Use only the information in the context. If the context does not contain the answer, say that you don't know.
{{if .Language}}Answer in {{.Language}}.{{else}}Answer in the same language as the question.{{end}}

{{.Context}}`
)

var (
	contextualizeSystemTmpl = template.Must(template.New("contextualize").Parse(ContextualizeSystemMessageTmpl))
	answerSystemTmpl        = template.Must(template.New("answer").Parse(AnswerSystemMessageTmpl))
)

// TemplateData holds the values substituted into prompt templates
type TemplateData struct {
	Context  string
	Language string
}

func executeTemplate(t *template.Template, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}
