package docqa

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore maps session ids to sessions. Sessions are never updated or
// removed once created.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	newID func() string
	now   func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Create registers a fully built index under a fresh random id.
func (s *SessionStore) Create(source string, index *VectorIndex) (*Session, error) {
	if index == nil {
		return nil, fmt.Errorf("%w: session requires an index", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for {
		if _, taken := s.sessions[id]; !taken {
			break
		}
		id = s.newID()
	}

	session := &Session{
		ID:        id,
		Source:    source,
		Index:     index,
		CreatedAt: s.now(),
	}
	s.sessions[id] = session

	return session, nil
}

func (s *SessionStore) Lookup(id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return session, nil
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
