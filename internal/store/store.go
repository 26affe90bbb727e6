// Package store implements the persistent datastore for stored commands,
// settings overrides and third-party credentials.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// CommandType discriminates stored command behaviour.
type CommandType string

const (
	// CommandStatic responds with the stored text verbatim.
	CommandStatic CommandType = "STATIC"
	// CommandDynamic is reserved for scripted responses. Execution is
	// intentionally unimplemented; the processor replies that the type is
	// unsupported.
	CommandDynamic CommandType = "DYNAMIC"
)

// Command is a stored (user-managed) chat command.
type Command struct {
	Name     string      `json:"name"`
	Response string      `json:"response"`
	Type     CommandType `json:"type"`
	Enabled  bool        `json:"enabled"`
	Cooldown int         `json:"cooldown"`
}

const schema = `
CREATE TABLE IF NOT EXISTS commands (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	response TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT 'STATIC',
	enabled BOOLEAN NOT NULL DEFAULT 1,
	cooldown INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	value TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS credentials (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	service TEXT UNIQUE NOT NULL,
	value TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the datastore at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open datastore: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindCommand returns the stored command with the given name, or nil if no
// such command exists.
func (s *Store) FindCommand(ctx context.Context, name string) (*Command, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, response, type, enabled, cooldown FROM commands WHERE name = ?`, name)

	var c Command
	err := row.Scan(&c.Name, &c.Response, &c.Type, &c.Enabled, &c.Cooldown)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find command %q: %w", name, err)
	}
	return &c, nil
}

// ListCommands returns all stored commands ordered by name.
func (s *Store) ListCommands(ctx context.Context) ([]Command, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, response, type, enabled, cooldown FROM commands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	defer rows.Close()

	var commands []Command
	for rows.Next() {
		var c Command
		if err := rows.Scan(&c.Name, &c.Response, &c.Type, &c.Enabled, &c.Cooldown); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		commands = append(commands, c)
	}
	return commands, rows.Err()
}

// CreateCommand inserts a new stored command. The name must be unique.
func (s *Store) CreateCommand(ctx context.Context, c Command) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (name, response, type, enabled, cooldown) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Response, c.Type, c.Enabled, c.Cooldown)
	if err != nil {
		return fmt.Errorf("create command %q: %w", c.Name, err)
	}
	return nil
}

// UpdateCommand replaces the response and type of an existing command.
func (s *Store) UpdateCommand(ctx context.Context, name, response string, typ CommandType) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE commands SET response = ?, type = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?`,
		response, typ, name)
	if err != nil {
		return fmt.Errorf("update command %q: %w", name, err)
	}
	return nil
}

// SetCommandEnabled toggles a stored command.
func (s *Store) SetCommandEnabled(ctx context.Context, name string, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE commands SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?`,
		enabled, name)
	if err != nil {
		return fmt.Errorf("toggle command %q: %w", name, err)
	}
	return nil
}

// DeleteCommand removes a stored command.
func (s *Store) DeleteCommand(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM commands WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete command %q: %w", name, err)
	}
	return nil
}

// Settings returns all settings overrides as a name → value map.
func (s *Store) Settings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[name] = value
	}
	return settings, rows.Err()
}

// FindSetting returns the value of a setting and whether it exists.
func (s *Store) FindSetting(ctx context.Context, name string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = ?`, name)
	var value string
	err := row.Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find setting %q: %w", name, err)
	}
	return value, true, nil
}

// SetSetting creates or updates a settings override.
func (s *Store) SetSetting(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", name, err)
	}
	return nil
}

// DeleteSetting removes a settings override.
func (s *Store) DeleteSetting(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete setting %q: %w", name, err)
	}
	return nil
}
