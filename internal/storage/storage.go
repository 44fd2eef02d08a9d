package storage

import (
	"errors"
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/photoform/internal/form"
)

// ErrSessionNotFound is returned for unknown session IDs
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps form sessions in memory. Sessions handed out by Get and
// GetAll are copies; changes go through Update, which serializes edits.
type SessionStore struct {
	sessions map[string]*form.Session
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*form.Session),
	}
}

func (s *SessionStore) Get(sessionID string) (*form.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, false
	}
	return session.Clone(), true
}

func (s *SessionStore) Set(sessionID string, session *form.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session.Clone()
}

// GetAll returns copies of every session, oldest first
func (s *SessionStore) GetAll() []*form.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*form.Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		result = append(result, v.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Update runs fn on a copy of the session under the write lock and stores
// the copy only when fn succeeds. The stored result is returned.
func (s *SessionStore) Update(sessionID string, fn func(*form.Session) error) (*form.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	s.sessions[sessionID] = working
	return working.Clone(), nil
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of stored sessions
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
