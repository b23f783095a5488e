package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bookingdesk/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

const (
	kvSession       = "session"
	kvActiveBooking = "active_booking"
)

// SQLiteSessionStore keeps the session in a key/value table of a local
// SQLite file, the CLI's equivalent of browser local storage.
type SQLiteSessionStore struct {
	db *sql.DB
}

func NewSQLiteSessionStore(path string) (*SQLiteSessionStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	// one connection so that :memory: databases are shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect session db: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &SQLiteSessionStore{db: db}, nil
}

func (s *SQLiteSessionStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteSessionStore) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteSessionStore) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteSessionStore) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, value)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteSessionStore) del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (s *SQLiteSessionStore) GetSession(ctx context.Context) (*models.Session, error) {
	raw, ok, err := s.get(ctx, kvSession)
	if err != nil || !ok {
		return nil, err
	}
	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *SQLiteSessionStore) SaveSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return s.Clear(ctx)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.set(ctx, kvSession, string(data))
}

func (s *SQLiteSessionStore) GetActiveBooking(ctx context.Context) (models.ID, error) {
	raw, _, err := s.get(ctx, kvActiveBooking)
	return models.ID(raw), err
}

func (s *SQLiteSessionStore) SetActiveBooking(ctx context.Context, id models.ID) error {
	if id == "" {
		return s.ClearActiveBooking(ctx)
	}
	return s.set(ctx, kvActiveBooking, id.String())
}

func (s *SQLiteSessionStore) ClearActiveBooking(ctx context.Context) error {
	return s.del(ctx, kvActiveBooking)
}

func (s *SQLiteSessionStore) Clear(ctx context.Context) error {
	return s.del(ctx, kvSession, kvActiveBooking)
}
