package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storybot/model"
)

var (
	ErrSessionConflict = errors.New("session conflict: stored session is newer")
	ErrMaxRetries      = errors.New("max retries exceeded")
	ErrInvalidSession  = errors.New("invalid session")
	ErrInvalidParam    = errors.New("invalid parameter")
)

// Storage loads and persists sessions. Get never fails for an unknown user:
// it returns a fresh session instead.
type Storage interface {
	Get(ctx context.Context, userID model.UserID) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
}

func validateUserID(userID model.UserID) error {
	if userID.ID == "" {
		return fmt.Errorf("%w: user id is empty", ErrInvalidParam)
	}
	return nil
}

func validateSession(session *model.Session) error {
	if session == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}
	if session.UserID.ID == "" {
		return fmt.Errorf("%w: session user id is empty", ErrInvalidSession)
	}
	return nil
}

// stamp advances the version that the next Save will check against.
func stamp(session *model.Session) {
	session.Version++
	session.UpdatedAt = time.Now().UTC()
}
