// Package prefs is the persistent client-side preferences store: recent
// projects, sidebar geometry, model choice, search excludes. Everything in
// it is a non-authoritative cache; a missing value is a default, not an
// error, and the whole file is safe to lose.
package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = 1

// recentCapacity bounds the recent-projects list.
const recentCapacity = 5

// Preference keys.
const (
	KeySidebarWidth   = "sidebar.width"
	KeySidebarVisible = "sidebar.visible"
	KeySelectedModel  = "model.selected"
	KeySearchExclude  = "search.exclude"
)

// Store is a sqlite-backed preferences store with typed accessors.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open prefs database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recent_projects (
		path TEXT PRIMARY KEY,
		opened_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recent_opened ON recent_projects(opened_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO prefs (key, value) VALUES ('schema.version', ?)
		ON CONFLICT(key) DO NOTHING
	`, strconv.Itoa(schemaVersion))
	return err
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw value for key, or ok=false if unset.
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores a raw value for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prefs (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetString returns the value for key, or fallback when unset.
func (s *Store) GetString(ctx context.Context, key, fallback string) string {
	if v, ok := s.Get(ctx, key); ok {
		return v
	}
	return fallback
}

// GetInt returns the integer value for key, or fallback when unset or
// unparseable.
func (s *Store) GetInt(ctx context.Context, key string, fallback int) int {
	if v, ok := s.Get(ctx, key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// GetBool returns the boolean value for key, or fallback when unset.
func (s *Store) GetBool(ctx context.Context, key string, fallback bool) bool {
	if v, ok := s.Get(ctx, key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// SetInt stores an integer value for key.
func (s *Store) SetInt(ctx context.Context, key string, value int) error {
	return s.Set(ctx, key, strconv.Itoa(value))
}

// SetBool stores a boolean value for key.
func (s *Store) SetBool(ctx context.Context, key string, value bool) error {
	return s.Set(ctx, key, strconv.FormatBool(value))
}

// SidebarWidth returns the persisted sidebar width.
func (s *Store) SidebarWidth(ctx context.Context) int {
	return s.GetInt(ctx, KeySidebarWidth, 32)
}

// SetSidebarWidth persists the sidebar width.
func (s *Store) SetSidebarWidth(ctx context.Context, width int) error {
	return s.SetInt(ctx, KeySidebarWidth, width)
}

// SidebarVisible returns the persisted sidebar visibility.
func (s *Store) SidebarVisible(ctx context.Context) bool {
	return s.GetBool(ctx, KeySidebarVisible, true)
}

// SetSidebarVisible persists the sidebar visibility.
func (s *Store) SetSidebarVisible(ctx context.Context, visible bool) error {
	return s.SetBool(ctx, KeySidebarVisible, visible)
}

// SelectedModel returns the persisted model preference, or "" for server
// default.
func (s *Store) SelectedModel(ctx context.Context) string {
	return s.GetString(ctx, KeySelectedModel, "")
}

// SetSelectedModel persists the model preference.
func (s *Store) SetSelectedModel(ctx context.Context, modelID string) error {
	return s.Set(ctx, KeySelectedModel, modelID)
}

// SearchExcludes returns the glob patterns hidden from quick search.
func (s *Store) SearchExcludes(ctx context.Context) []string {
	raw := s.GetString(ctx, KeySearchExclude,
		"node_modules/**,vendor/**,.git/**,dist/**,build/**,__pycache__/**")
	var globs []string
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			globs = append(globs, g)
		}
	}
	return globs
}

// TouchRecentProject records a project open: move-to-front, dedupe by path,
// truncate to capacity.
func (s *Store) TouchRecentProject(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recent_projects (path, opened_at) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET opened_at = excluded.opened_at
	`, path, time.Now().UTC())
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM recent_projects WHERE path NOT IN (
			SELECT path FROM recent_projects ORDER BY opened_at DESC LIMIT ?
		)
	`, recentCapacity)
	return err
}

// RecentProjects returns project roots, most recent first.
func (s *Store) RecentProjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path FROM recent_projects ORDER BY opened_at DESC LIMIT ?
	`, recentCapacity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
