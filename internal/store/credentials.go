package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known credential service keys.
const (
	ServiceTwitch            = "twitch"
	ServiceTwitchBroadcaster = "twitch_broadcaster"
	ServiceSpotify           = "spotify"
)

// TokenSet is an OAuth token blob as handed out by third-party services.
// Stored opaque; the bot never produces these, only consumes them.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// GetCredentials returns the token set for a service, or nil if none are
// stored.
func (s *Store) GetCredentials(ctx context.Context, service string) (*TokenSet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = ?`, service)

	var raw string
	err := row.Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch credentials for %q: %w", service, err)
	}

	var tokens TokenSet
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil, fmt.Errorf("decode credentials for %q: %w", service, err)
	}
	return &tokens, nil
}

// SetCredentials upserts the token set for a service.
func (s *Store) SetCredentials(ctx context.Context, service string, tokens TokenSet) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode credentials for %q: %w", service, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO credentials (service, value) VALUES (?, ?)
		 ON CONFLICT(service) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		service, string(raw))
	if err != nil {
		return fmt.Errorf("store credentials for %q: %w", service, err)
	}
	return nil
}
