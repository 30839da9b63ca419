package docqa

import (
	"fmt"
	"strings"
	"time"
)

// Document is the extracted text of one uploaded file. It only lives for the
// duration of an upload.
type Document struct {
	Source string
	Text   string
}

// Chunk is a contiguous, possibly overlapping slice of a document. Index is
// the position in the document, Start the rune offset in the source text and
// Overlap the number of leading runes shared with the previous chunk.
type Chunk struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Start   int    `json:"start"`
	Overlap int    `json:"overlap"`
}

// ScoredChunk is a retrieval hit. Lower distance means closer to the query.
type ScoredChunk struct {
	Chunk    Chunk   `json:"chunk"`
	Distance float64 `json:"distance"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message of the conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session binds an opaque id to the index built from one document.
type Session struct {
	ID        string
	Source    string
	Index     *VectorIndex
	CreatedAt time.Time
}

// Query is one question asked against a session.
type Query struct {
	SessionID string
	Message   string
	History   []Turn
}

func (q Query) validate() error {
	if q.SessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(q.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	for i, turn := range q.History {
		if !turn.Role.Valid() {
			return fmt.Errorf("%w: history[%d] has unknown role %q", ErrInvalidInput, i, turn.Role)
		}
	}
	return nil
}

// Answer is the result of the query pipeline.
type Answer struct {
	Text            string
	StandaloneQuery string
	Sources         []ScoredChunk
}
