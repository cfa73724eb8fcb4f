package adapter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SessionState is a state of a transaction session.
type SessionState string

// Session states.
const (
	SessionIdle       SessionState = "idle"
	SessionInProgress SessionState = "in_progress"
	SessionResolved   SessionState = "resolved"
	SessionRejected   SessionState = "rejected"
)

var (
	// ErrInvalidTransition is returned for a state change not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid session state transition")

	// ErrSessionNotFound is returned for unknown session ids.
	ErrSessionNotFound = errors.New("session not found")
)

// SessionStore tracks transaction session states.
//
// Sessions only track state: backend writes are not undone on rollback.
type SessionStore struct {
	m        sync.Mutex
	sessions map[string]SessionState
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]SessionState),
	}
}

// Create registers a new idle session and returns its id.
func (s *SessionStore) Create() string {
	id := uuid.NewString()

	s.m.Lock()
	defer s.m.Unlock()

	s.sessions[id] = SessionIdle

	return id
}

// Begin moves the session from idle to in progress.
func (s *SessionStore) Begin(id string) error {
	return s.transition(id, SessionIdle, SessionInProgress)
}

// Commit moves the session from in progress to resolved.
func (s *SessionStore) Commit(id string) error {
	return s.transition(id, SessionInProgress, SessionResolved)
}

// Rollback moves the session from in progress to rejected.
func (s *SessionStore) Rollback(id string) error {
	return s.transition(id, SessionInProgress, SessionRejected)
}

// State returns the current session state.
func (s *SessionStore) State(id string) (SessionState, error) {
	s.m.Lock()
	defer s.m.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	return state, nil
}

// Delete forgets the session.
func (s *SessionStore) Delete(id string) {
	s.m.Lock()
	defer s.m.Unlock()

	delete(s.sessions, id)
}

// Len returns the number of tracked sessions.
func (s *SessionStore) Len() int {
	s.m.Lock()
	defer s.m.Unlock()

	return len(s.sessions)
}

func (s *SessionStore) transition(id string, from, to SessionState) error {
	s.m.Lock()
	defer s.m.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	if state != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, state, to)
	}

	s.sessions[id] = to

	return nil
}
