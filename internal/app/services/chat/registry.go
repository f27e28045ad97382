// Package chat keeps per-session conversation transcripts in memory.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/dongnae-labs/storefront/internal/app/domain/chat"
	"github.com/dongnae-labs/storefront/internal/errors"
)

// Greeting is the assistant entry every new transcript starts with.
const Greeting = "어서오세요! 주문 도와드릴까요?"

// Registry holds live sessions. Transcripts are never persisted; closing a
// session discards its transcript.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*domain.Session)}
}

// Open creates a session bound to the store, seeded with the greeting.
func (r *Registry) Open(storeID string) domain.Session {
	session := &domain.Session{
		ID:      uuid.NewString(),
		StoreID: storeID,
		Transcript: []domain.Message{
			{Role: domain.RoleAssistant, Content: Greeting},
		},
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	return snapshot(session)
}

// Get returns a copy of the session, or NotFound.
func (r *Registry) Get(sessionID string) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return domain.Session{}, errors.NotFound(sessionID)
	}
	return snapshot(session), nil
}

// Append adds an entry to the session transcript.
func (r *Registry) Append(sessionID string, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return errors.NotFound(sessionID)
	}
	session.Transcript = append(session.Transcript, msg)
	return nil
}

// Close discards the session and its transcript. Closing an unknown session
// is not an error.
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}

// CloseStore discards every session bound to the store. Used when a store is
// deleted from the directory.
func (r *Registry) CloseStore(storeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.StoreID == storeID {
			delete(r.sessions, id)
		}
	}
}

func snapshot(session *domain.Session) domain.Session {
	copied := *session
	copied.Transcript = append([]domain.Message(nil), session.Transcript...)
	return copied
}
