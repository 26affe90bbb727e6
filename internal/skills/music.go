package skills

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/providers"
)

// SpotifyClient is the playback surface the music skill drives.
type SpotifyClient interface {
	TrackInfo(ctx context.Context, trackID string) (*providers.Track, error)
	AddToQueue(ctx context.Context, uri string) error
	Skip(ctx context.Context) error
}

var spotifyTrackRe = regexp.MustCompile(`open\.spotify\.com/track/([A-Za-z0-9]+)`)

// Music queues and skips songs on the broadcaster's Spotify player.
type Music struct {
	bot.SkillBase
	log     *slog.Logger
	spotify SpotifyClient
}

// NewMusic creates the music skill.
func NewMusic(spotify SpotifyClient, log *slog.Logger) *Music {
	return &Music{
		SkillBase: bot.NewSkillBase(bot.ActivityAddSongToQueue, bot.ActivitySkipSong),
		log:       log.With("skill", "music"),
		spotify:   spotify,
	}
}

func (s *Music) Name() string { return "music" }

func (s *Music) Handle(ctx context.Context, activity bot.Activity) (string, error) {
	switch payload := activity.Payload.(type) {
	case bot.SongRequestPayload:
		return s.queue(ctx, payload)
	case bot.SkipSongPayload:
		if err := s.spotify.Skip(ctx); err != nil {
			return "", fmt.Errorf("skip song: %w", err)
		}
		return "Skipped the current song!", nil
	default:
		return "", fmt.Errorf("unexpected payload %T", activity.Payload)
	}
}

func (s *Music) queue(ctx context.Context, payload bot.SongRequestPayload) (string, error) {
	match := spotifyTrackRe.FindStringSubmatch(payload.Song)
	if match == nil {
		return "That doesn't look like a Spotify track link!", nil
	}
	trackID := match[1]

	track, err := s.spotify.TrackInfo(ctx, trackID)
	if err != nil {
		return "", fmt.Errorf("look up track %s: %w", trackID, err)
	}
	if err := s.spotify.AddToQueue(ctx, track.URI); err != nil {
		return "", fmt.Errorf("queue track %s: %w", trackID, err)
	}
	s.log.Debug("queued track", "track", track.Display())
	return fmt.Sprintf("Added %s to the queue!", track.Display()), nil
}
