package docqa

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const maxEvalLineBytes = 4 * 1024 * 1024

// EvalCase is one line of a retrieval evaluation set. A golden passage counts
// as retrieved when any returned chunk contains it, ignoring case and
// whitespace differences.
type EvalCase struct {
	Query          string   `json:"query"`
	Answer         string   `json:"answer,omitempty"`
	GoldenPassages []string `json:"golden_passages"`
}

type EvalReport struct {
	K       int     `json:"k"`
	Cases   int     `json:"cases"`
	Skipped int     `json:"skipped"`
	Recall  float64 `json:"recall"`
	MRR     float64 `json:"mrr"`
}

// ReadEvalCases parses a JSON Lines evaluation set. Blank lines are ignored.
func ReadEvalCases(r io.Reader) ([]EvalCase, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEvalLineBytes)

	var cases []EvalCase
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var c EvalCase
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("%w: evaluation line %d: %v", ErrInvalidInput, line, err)
		}
		cases = append(cases, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cases, nil
}

// EvaluateRetrieval runs every case's query through the retriever against the
// session's index. Recall is the mean fraction of golden passages found in the
// top-k, MRR the mean reciprocal rank of the first chunk holding any golden
// passage. Blank golden passages are ignored, and cases left without a query or
// golden passages are skipped.
func (p *Pipeline) EvaluateRetrieval(ctx context.Context, sessionID string, cases []EvalCase) (*EvalReport, error) {
	session, err := p.store.Lookup(sessionID)
	if err != nil {
		return nil, err
	}

	report := &EvalReport{K: p.retriever.TopK()}
	var recallSum, rrSum float64

	for _, c := range cases {
		goldens := make([]string, 0, len(c.GoldenPassages))
		for _, golden := range c.GoldenPassages {
			if g := normalizeText(golden); g != "" {
				goldens = append(goldens, g)
			}
		}
		if strings.TrimSpace(c.Query) == "" || len(goldens) == 0 {
			report.Skipped++
			continue
		}

		hits, err := p.retriever.Retrieve(ctx, session.Index, c.Query)
		if err != nil {
			return nil, err
		}

		texts := make([]string, len(hits))
		for i, h := range hits {
			texts[i] = normalizeText(h.Chunk.Text)
		}

		found := 0
		firstRank := 0
		for _, g := range goldens {
			for rank, text := range texts {
				if !strings.Contains(text, g) {
					continue
				}
				found++
				if firstRank == 0 || rank+1 < firstRank {
					firstRank = rank + 1
				}
				break
			}
		}

		recallSum += float64(found) / float64(len(goldens))
		if firstRank > 0 {
			rrSum += 1 / float64(firstRank)
		}
		report.Cases++
	}

	if report.Cases > 0 {
		report.Recall = recallSum / float64(report.Cases)
		report.MRR = rrSum / float64(report.Cases)
	}
	return report, nil
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
