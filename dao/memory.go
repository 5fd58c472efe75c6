package dao

import (
	"context"
	"sync"

	"storybot/model"
)

// MemoryStore keeps sessions in process memory. Stored sessions are cloned on
// the way in and out so callers never share state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*model.Session)}
}

func (s *MemoryStore) Get(ctx context.Context, userID model.UserID) (*model.Session, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if session, ok := s.sessions[userID.ID]; ok {
		return session.Clone(), nil
	}
	return model.NewSession(userID), nil
}

func (s *MemoryStore) Save(ctx context.Context, session *model.Session) error {
	if err := validateSession(session); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.sessions[session.UserID.ID]; ok && current.Version != session.Version {
		return ErrSessionConflict
	}
	stamp(session)
	s.sessions[session.UserID.ID] = session.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID.ID)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
