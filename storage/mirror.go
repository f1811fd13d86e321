// Package storage is a passive local mirror of session state: keyed
// JSON blobs in a sqlite file. The session owns the data; the mirror
// is never a source of truth while a conversation is active.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Fixed blob keys. Unknown keys simply come back as ErrNotFound.
const (
	KeyChatHistory      = "chat-history"
	KeyToolPolicy       = "tool-policy"
	KeyConversationMeta = "conversation-meta"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("key not found")

type Mirror struct {
	db *sql.DB
}

func NewMirror(dataDir string) (*Mirror, error) {
	dbPath := filepath.Join(dataDir, "state.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	m := &Mirror{db: db}

	if err := m.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return m, nil
}

func (m *Mirror) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	_, err := m.db.Exec(schema)
	return err
}

// Put stores a raw value under key, replacing any previous value.
func (m *Mirror) Put(key, value string) error {
	_, err := m.db.Exec(
		`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Get returns the raw value under key, or ErrNotFound.
func (m *Mirror) Get(key string) (string, error) {
	var value string
	err := m.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (m *Mirror) Delete(key string) error {
	_, err := m.db.Exec(`DELETE FROM blobs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PutJSON marshals value and stores it under key.
func (m *Mirror) PutJSON(key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return m.Put(key, string(payload))
}

// GetJSON loads the blob under key into out. Returns ErrNotFound for
// never-written keys so callers can fall back to defaults.
func (m *Mirror) GetJSON(key string, out any) error {
	value, err := m.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (m *Mirror) Close() error {
	return m.db.Close()
}
