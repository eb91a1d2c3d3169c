// Package sqlite provides a SQLite-backed implementation of the
// storage.TokenStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/budgetminibot/appcore/internal/storage"
)

// tokenKey is the fixed key the session token lives under.
const tokenKey = "session_token"

// Ensure TokenStore implements storage.TokenStore
var _ storage.TokenStore = (*TokenStore)(nil)

// TokenStore persists the session token in a local SQLite database.
type TokenStore struct {
	db *sql.DB
}

// New creates a TokenStore at the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*TokenStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TokenStore{db: db}, nil
}

// Close closes the database connection.
func (s *TokenStore) Close() error {
	return s.db.Close()
}

// Load returns the stored session token, or "" when none is stored.
func (s *TokenStore) Load(ctx context.Context) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM client_state WHERE key = ?",
		tokenKey,
	).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// Save stores the session token, replacing any previous one.
func (s *TokenStore) Save(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		tokenKey, token, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear removes the stored session token.
func (s *TokenStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM client_state WHERE key = ?",
		tokenKey,
	)
	if err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
