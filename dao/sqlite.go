package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"storybot/model"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS sessions (
	user_id    TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteStore keeps one row per user in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	stmts := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
		sqliteSchema,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("preparing sqlite session store: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, userID model.UserID) (*model.Session, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE user_id = ?`, userID.ID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewSession(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", userID.ID, err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", userID.ID, err)
	}
	return &session, nil
}

func (s *SQLiteStore) Save(ctx context.Context, session *model.Session) error {
	if err := validateSession(session); err != nil {
		return err
	}

	next := session.Clone()
	stamp(next)
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.UserID.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session save: %w", err)
	}
	defer tx.Rollback()

	var stored int64
	err = tx.QueryRowContext(ctx, `SELECT version FROM sessions WHERE user_id = ?`, session.UserID.ID).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sessions (user_id, version, data, updated_at) VALUES (?, ?, ?, ?)`,
			session.UserID.ID, next.Version, data, next.UpdatedAt.Format(time.RFC3339Nano))
	case err != nil:
		return fmt.Errorf("loading session version %s: %w", session.UserID.ID, err)
	case stored != session.Version:
		return ErrSessionConflict
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE sessions SET version = ?, data = ?, updated_at = ? WHERE user_id = ?`,
			next.Version, data, next.UpdatedAt.Format(time.RFC3339Nano), session.UserID.ID)
	}
	if err != nil {
		return fmt.Errorf("saving session %s: %w", session.UserID.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session %s: %w", session.UserID.ID, err)
	}
	session.Version, session.UpdatedAt = next.Version, next.UpdatedAt
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, userID model.UserID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID.ID)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
