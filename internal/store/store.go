// Package store persists chat sessions so conversations survive restarts
// and can be inspected later.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// LogEntry is one recorded turn of a conversation.
type LogEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is a stored conversation with its full message log.
type Session struct {
	SessionID  string     `json:"sessionId"`
	MessageLog []LogEntry `json:"messageLog"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
}

// Store wraps the SQLite database used for conversation persistence.
type Store struct {
	db *sql.DB
}

// Open initializes the datastore at the supplied file path.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("conversation store DSN is required")
	}
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create conversation store directory: %w", err)
		}
	}
	conn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", dsn)
	db, err := sql.Open("sqlite", conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite conversation store: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection without applying the schema.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL UNIQUE,
			message_log TEXT,
			started_at TIMESTAMP NOT NULL,
			ended_at TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema apply failed: %w", err)
		}
	}
	return nil
}

// Close shuts down the datastore.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartSession records the beginning of a conversation.
func (s *Store) StartSession(sessionID string) error {
	if sessionID == "" {
		return errors.New("session id required")
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, message_log, started_at) VALUES (?, ?, ?)`,
		sessionID, "[]", time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	return nil
}

// SaveLog replaces the stored message log for a session and stamps ended_at,
// so the persisted row always reflects the last completed turn.
func (s *Store) SaveLog(sessionID string, log []LogEntry) error {
	if sessionID == "" {
		return errors.New("session id required")
	}
	encoded, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode message log: %w", err)
	}
	res, err := s.db.Exec(
		`UPDATE sessions SET message_log = ?, ended_at = ? WHERE session_id = ?`,
		string(encoded), time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to save message log: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("session %q not found", sessionID)
	}
	return nil
}

// GetSession loads a stored conversation by id.
func (s *Store) GetSession(sessionID string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT session_id, message_log, started_at, ended_at FROM sessions WHERE session_id = ?`,
		sessionID,
	)
	var (
		sess    Session
		rawLog  sql.NullString
		endedAt sql.NullTime
	)
	if err := row.Scan(&sess.SessionID, &rawLog, &sess.StartedAt, &endedAt); err != nil {
		return nil, err
	}
	if rawLog.Valid {
		_ = json.Unmarshal([]byte(rawLog.String), &sess.MessageLog)
	}
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return &sess, nil
}

// ListSessions returns stored conversations from newest to oldest.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	query := `SELECT session_id, message_log, started_at, ended_at FROM sessions ORDER BY started_at DESC`
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []Session
	for rows.Next() {
		var (
			sess    Session
			rawLog  sql.NullString
			endedAt sql.NullTime
		)
		if err := rows.Scan(&sess.SessionID, &rawLog, &sess.StartedAt, &endedAt); err != nil {
			return nil, err
		}
		if rawLog.Valid {
			_ = json.Unmarshal([]byte(rawLog.String), &sess.MessageLog)
		}
		if endedAt.Valid {
			sess.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
