// Package providers holds explicitly constructed clients for the external
// services skills depend on. Every client is created by the composition root
// and handed to the skills that need it; nothing here is a process-wide
// singleton.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/stormix/stormbot/internal/config"
	"github.com/stormix/stormbot/internal/store"
)

// CredentialStore persists OAuth token sets between runs.
type CredentialStore interface {
	GetCredentials(ctx context.Context, service string) (*store.TokenSet, error)
	SetCredentials(ctx context.Context, service string, tokens store.TokenSet) error
}

const (
	defaultHelixURL       = "https://api.twitch.tv/helix"
	defaultTwitchOAuthURL = "https://id.twitch.tv/oauth2"
)

// Twitch is a Helix API client authenticated with the broadcaster's stored
// tokens. A 401 triggers one refresh-and-retry; a second 401 surfaces.
type Twitch struct {
	log  *slog.Logger
	cfg  config.TwitchConfig
	http *http.Client

	// Overridable for tests.
	HelixURL string
	OAuthURL string

	creds   CredentialStore
	service string

	mu            sync.Mutex
	broadcasterID string
}

// NewTwitch creates a Helix client using the tokens stored under service
// (ServiceTwitch for the bot account, ServiceTwitchBroadcaster for
// moderation-scoped calls).
func NewTwitch(cfg config.TwitchConfig, creds CredentialStore, service string, log *slog.Logger) *Twitch {
	return &Twitch{
		log:      log.With("component", "twitch-api"),
		cfg:      cfg,
		http:     &http.Client{Timeout: 10 * time.Second},
		HelixURL: defaultHelixURL,
		OAuthURL: defaultTwitchOAuthURL,
		creds:    creds,
		service:  service,
	}
}

type helixUser struct {
	ID    string `json:"id"`
	Login string `json:"login"`
}

// UserID resolves a login name to a Twitch user ID.
func (t *Twitch) UserID(ctx context.Context, login string) (string, error) {
	var out struct {
		Data []helixUser `json:"data"`
	}
	query := url.Values{"login": {strings.ToLower(login)}}
	if err := t.do(ctx, http.MethodGet, "/users?"+query.Encode(), nil, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 {
		return "", fmt.Errorf("twitch user %q not found", login)
	}
	return out.Data[0].ID, nil
}

// BroadcasterID resolves and caches the configured channel's user ID.
func (t *Twitch) BroadcasterID(ctx context.Context) (string, error) {
	t.mu.Lock()
	cached := t.broadcasterID
	t.mu.Unlock()
	if cached != "" {
		return cached, nil
	}
	id, err := t.UserID(ctx, t.cfg.Channel)
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	t.broadcasterID = id
	t.mu.Unlock()
	return id, nil
}

// TimeoutUser times a user out for the given duration. A zero duration is a
// permanent ban.
func (t *Twitch) TimeoutUser(ctx context.Context, username string, duration time.Duration, reason string) error {
	broadcaster, err := t.BroadcasterID(ctx)
	if err != nil {
		return err
	}
	userID, err := t.UserID(ctx, username)
	if err != nil {
		return err
	}

	body := map[string]any{
		"data": map[string]any{
			"user_id": userID,
			"reason":  reason,
		},
	}
	if duration > 0 {
		body["data"].(map[string]any)["duration"] = int(duration.Seconds())
	}

	query := url.Values{
		"broadcaster_id": {broadcaster},
		"moderator_id":   {broadcaster},
	}
	return t.do(ctx, http.MethodPost, "/moderation/bans?"+query.Encode(), body, nil)
}

// PollChoice is one selectable poll option with its current tally.
type PollChoice struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Votes int    `json:"votes"`
}

// Poll is a channel poll as reported by Helix.
type Poll struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Status  string       `json:"status"`
	Choices []PollChoice `json:"choices"`
}

// CreatePoll starts a channel poll and returns its ID.
func (t *Twitch) CreatePoll(ctx context.Context, title string, choices []string, duration time.Duration) (string, error) {
	broadcaster, err := t.BroadcasterID(ctx)
	if err != nil {
		return "", err
	}

	choiceObjs := make([]map[string]string, len(choices))
	for i, choice := range choices {
		choiceObjs[i] = map[string]string{"title": choice}
	}
	body := map[string]any{
		"broadcaster_id": broadcaster,
		"title":          title,
		"choices":        choiceObjs,
		"duration":       int(duration.Seconds()),
	}

	var out struct {
		Data []Poll `json:"data"`
	}
	if err := t.do(ctx, http.MethodPost, "/polls", body, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 {
		return "", fmt.Errorf("poll creation returned no poll")
	}
	return out.Data[0].ID, nil
}

// GetPoll fetches a poll, including per-choice vote counts.
func (t *Twitch) GetPoll(ctx context.Context, pollID string) (*Poll, error) {
	broadcaster, err := t.BroadcasterID(ctx)
	if err != nil {
		return nil, err
	}
	query := url.Values{"broadcaster_id": {broadcaster}, "id": {pollID}}

	var out struct {
		Data []Poll `json:"data"`
	}
	if err := t.do(ctx, http.MethodGet, "/polls?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("poll %q not found", pollID)
	}
	return &out.Data[0], nil
}

// EndPoll terminates a running poll.
func (t *Twitch) EndPoll(ctx context.Context, pollID string) error {
	broadcaster, err := t.BroadcasterID(ctx)
	if err != nil {
		return err
	}
	body := map[string]any{
		"broadcaster_id": broadcaster,
		"id":             pollID,
		"status":         "TERMINATED",
	}
	return t.do(ctx, http.MethodPatch, "/polls", body, nil)
}

// do performs an authenticated Helix request, refreshing the stored token
// once on a 401.
func (t *Twitch) do(ctx context.Context, method, path string, body, out any) error {
	tokens, err := t.creds.GetCredentials(ctx, t.service)
	if err != nil {
		return err
	}
	if tokens == nil {
		return fmt.Errorf("no %s credentials stored", t.service)
	}

	status, err := t.doOnce(ctx, method, path, body, out, tokens.AccessToken)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return nil
	}

	t.log.Debug("access token rejected, refreshing", "service", t.service)
	refreshed, err := t.refresh(ctx, tokens.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh %s token: %w", t.service, err)
	}

	status, err = t.doOnce(ctx, method, path, body, out, refreshed.AccessToken)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return fmt.Errorf("helix %s %s: unauthorized after token refresh", method, path)
	}
	return nil
}

// doOnce runs one request. It returns the 401 status instead of an error so
// the caller can refresh; every other non-2xx is an error.
func (t *Twitch) doOnce(ctx context.Context, method, path string, body, out any, token string) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode helix request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.HelixURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", t.cfg.ClientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("helix %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("helix %s %s: status %d: %s", method, path, resp.StatusCode, detail)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode helix response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// refresh exchanges the refresh token for a new token set and persists it.
func (t *Twitch) refresh(ctx context.Context, refreshToken string) (*store.TokenSet, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token stored")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {t.cfg.ClientID},
		"client_secret": {t.cfg.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.OAuthURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, detail)
	}

	var tokens store.TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = refreshToken
	}
	if err := t.creds.SetCredentials(ctx, t.service, tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}
