package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stormix/stormbot/internal/config"
	"github.com/stormix/stormbot/internal/store"
)

const (
	defaultSpotifyAPIURL      = "https://api.spotify.com/v1"
	defaultSpotifyAccountsURL = "https://accounts.spotify.com"
)

// Track is the subset of Spotify track metadata shown in chat.
type Track struct {
	Name    string
	Artists []string
	URI     string
}

// Display renders the track as "Artist1, Artist2 - Name".
func (t Track) Display() string {
	return strings.Join(t.Artists, ", ") + " - " + t.Name
}

// Spotify drives the broadcaster's playback queue through the Web API.
type Spotify struct {
	log  *slog.Logger
	cfg  config.SpotifyConfig
	http *http.Client

	// Overridable for tests.
	APIURL      string
	AccountsURL string

	creds CredentialStore
}

// NewSpotify creates a Web API client using the stored Spotify tokens.
func NewSpotify(cfg config.SpotifyConfig, creds CredentialStore, log *slog.Logger) *Spotify {
	return &Spotify{
		log:         log.With("component", "spotify"),
		cfg:         cfg,
		http:        &http.Client{Timeout: 10 * time.Second},
		APIURL:      defaultSpotifyAPIURL,
		AccountsURL: defaultSpotifyAccountsURL,
		creds:       creds,
	}
}

// TrackInfo fetches metadata for a track ID.
func (s *Spotify) TrackInfo(ctx context.Context, trackID string) (*Track, error) {
	var out struct {
		Name    string `json:"name"`
		URI     string `json:"uri"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
	}
	if err := s.do(ctx, http.MethodGet, "/tracks/"+trackID, &out); err != nil {
		return nil, err
	}
	track := &Track{Name: out.Name, URI: out.URI}
	for _, artist := range out.Artists {
		track.Artists = append(track.Artists, artist.Name)
	}
	return track, nil
}

// AddToQueue appends a track URI to the active playback queue.
func (s *Spotify) AddToQueue(ctx context.Context, uri string) error {
	query := url.Values{"uri": {uri}}
	return s.do(ctx, http.MethodPost, "/me/player/queue?"+query.Encode(), nil)
}

// Skip advances playback to the next track.
func (s *Spotify) Skip(ctx context.Context) error {
	return s.do(ctx, http.MethodPost, "/me/player/next", nil)
}

func (s *Spotify) do(ctx context.Context, method, path string, out any) error {
	tokens, err := s.creds.GetCredentials(ctx, store.ServiceSpotify)
	if err != nil {
		return err
	}
	if tokens == nil {
		return fmt.Errorf("no spotify credentials stored")
	}

	status, err := s.doOnce(ctx, method, path, out, tokens.AccessToken)
	if err != nil {
		return err
	}
	if status != http.StatusUnauthorized {
		return nil
	}

	s.log.Debug("spotify token rejected, refreshing")
	refreshed, err := s.refresh(ctx, tokens.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh spotify token: %w", err)
	}

	status, err = s.doOnce(ctx, method, path, out, refreshed.AccessToken)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		return fmt.Errorf("spotify %s %s: unauthorized after token refresh", method, path)
	}
	return nil
}

func (s *Spotify) doOnce(ctx context.Context, method, path string, out any, token string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.APIURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("spotify %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("spotify %s %s: status %d: %s", method, path, resp.StatusCode, detail)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode spotify response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (s *Spotify) refresh(ctx context.Context, refreshToken string) (*store.TokenSet, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token stored")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.AccountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
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
	if err := s.creds.SetCredentials(ctx, store.ServiceSpotify, tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}
