// Package store provides the local persistence layer: a namespaced
// key-value table in SQLite holding JSON snapshots of the auction state.
// The in-memory ledger stays authoritative; a failed write here is logged
// by the caller and never rolls back a completed mutation.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/avisingh/spl-auction/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Stable snapshot keys. These match the original deployment's namespace so
// an exported snapshot stays recognizable.
const (
	KeyPlayers        = "spl_players"
	KeyTeams          = "spl_teams"
	KeyAdminMode      = "spl_admin_mode"
	KeyTheme          = "spl_theme"
	KeyDeletedPlayers = "spl_deleted_players"
)

// Store is a SQLite-backed snapshot store.
type Store struct {
	db *sql.DB
}

// Open creates or opens the snapshot database at path. SQLite is configured
// for a single writer with WAL mode so viewers can read concurrently.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to snapshot database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put upserts a raw value under a key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, value, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Get reads a raw value. The second return is false when the key has never
// been written.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM snapshots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}

func (s *Store) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SavePlayers persists the full player catalog.
func (s *Store) SavePlayers(ctx context.Context, players []models.Player) error {
	return s.putJSON(ctx, KeyPlayers, players)
}

// LoadPlayers reads the persisted catalog, if any.
func (s *Store) LoadPlayers(ctx context.Context) ([]models.Player, bool, error) {
	var players []models.Player
	ok, err := s.getJSON(ctx, KeyPlayers, &players)
	return players, ok, err
}

// SaveTeams persists all teams and rosters.
func (s *Store) SaveTeams(ctx context.Context, teams []models.Team) error {
	return s.putJSON(ctx, KeyTeams, teams)
}

// LoadTeams reads the persisted teams, if any.
func (s *Store) LoadTeams(ctx context.Context) ([]models.Team, bool, error) {
	var teams []models.Team
	ok, err := s.getJSON(ctx, KeyTeams, &teams)
	return teams, ok, err
}

// SaveExcluded persists the permanent player exclusion list.
func (s *Store) SaveExcluded(ctx context.Context, ids []int) error {
	return s.putJSON(ctx, KeyDeletedPlayers, ids)
}

// LoadExcluded reads the permanent player exclusion list.
func (s *Store) LoadExcluded(ctx context.Context) ([]int, error) {
	var ids []int
	if _, err := s.getJSON(ctx, KeyDeletedPlayers, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetAdminMode persists the admin-mode flag.
func (s *Store) SetAdminMode(ctx context.Context, on bool) error {
	return s.putJSON(ctx, KeyAdminMode, on)
}

// AdminMode reads the persisted admin-mode flag, defaulting to false.
func (s *Store) AdminMode(ctx context.Context) (bool, error) {
	var on bool
	if _, err := s.getJSON(ctx, KeyAdminMode, &on); err != nil {
		return false, err
	}
	return on, nil
}

// SetTheme persists the display theme preference.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	return s.putJSON(ctx, KeyTheme, theme)
}

// Theme reads the persisted theme, defaulting to dark.
func (s *Store) Theme(ctx context.Context) (string, error) {
	theme := "dark"
	if _, err := s.getJSON(ctx, KeyTheme, &theme); err != nil {
		return "", err
	}
	return theme, nil
}
