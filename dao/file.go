package dao

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"storybot/model"
)

// FileStore keeps one JSON document per user under a base directory.
type FileStore struct {
	mu      sync.Mutex
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Get(ctx context.Context, userID model.UserID) (*model.Session, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.read(userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return model.NewSession(userID), nil
	}
	return session, nil
}

func (s *FileStore) Save(ctx context.Context, session *model.Session) error {
	if err := validateSession(session); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(session.UserID)
	if err != nil {
		return err
	}
	if current != nil && current.Version != session.Version {
		return ErrSessionConflict
	}

	next := session.Clone()
	stamp(next)
	if err := s.write(next); err != nil {
		return err
	}
	session.Version, session.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (s *FileStore) write(session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.UserID.ID, err)
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.baseDir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session %s: %w", session.UserID.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session %s: %w", session.UserID.ID, err)
	}
	if err := os.Rename(tmp.Name(), s.path(session.UserID)); err != nil {
		return fmt.Errorf("write session %s: %w", session.UserID.ID, err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) read(userID model.UserID) (*model.Session, error) {
	data, err := os.ReadFile(s.path(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", userID.ID, err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", userID.ID, err)
	}
	return &session, nil
}

func (s *FileStore) path(userID model.UserID) string {
	return filepath.Join(s.baseDir, url.PathEscape(userID.ID)+".json")
}
