package skills

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/overlay"
)

// OverlayPublisher pushes events to the stream overlay.
type OverlayPublisher interface {
	Publish(ctx context.Context, event overlay.Event) error
}

const shakeMessageLimit = 100

// Reader forwards a redeemed chat line to the overlay's text-to-speech
// read-out.
type Reader struct {
	bot.SkillBase
	log *slog.Logger
	pub OverlayPublisher
}

// NewReader creates the reader skill.
func NewReader(pub OverlayPublisher, log *slog.Logger) *Reader {
	return &Reader{
		SkillBase: bot.NewSkillBase(bot.ActivityReadChat),
		log:       log.With("skill", "reader"),
		pub:       pub,
	}
}

func (s *Reader) Name() string { return "reader" }

func (s *Reader) Handle(ctx context.Context, activity bot.Activity) (string, error) {
	payload, ok := activity.Payload.(bot.ReadChatPayload)
	if !ok {
		return "", fmt.Errorf("unexpected payload %T", activity.Payload)
	}

	err := s.pub.Publish(ctx, overlay.Event{
		Type:     overlay.EventRead,
		Username: payload.Username,
		Message:  payload.Text,
	})
	if err != nil {
		return "", fmt.Errorf("publish read-out: %w", err)
	}
	return "Notification sent, surely it'll work :KEKW:", nil
}

// Shake triggers the overlay screen shake.
type Shake struct {
	bot.SkillBase
	log *slog.Logger
	pub OverlayPublisher
}

// NewShake creates the shake skill.
func NewShake(pub OverlayPublisher, log *slog.Logger) *Shake {
	return &Shake{
		SkillBase: bot.NewSkillBase(bot.ActivityShakeScreen),
		log:       log.With("skill", "shake"),
		pub:       pub,
	}
}

func (s *Shake) Name() string { return "shake" }

func (s *Shake) Handle(ctx context.Context, activity bot.Activity) (string, error) {
	payload, ok := activity.Payload.(bot.ShakeScreenPayload)
	if !ok {
		return "", fmt.Errorf("unexpected payload %T", activity.Payload)
	}

	// Truncate on rune boundaries so the overlay never receives a split
	// UTF-8 sequence.
	message := payload.Text
	if utf8.RuneCountInString(message) > shakeMessageLimit {
		message = string([]rune(message)[:shakeMessageLimit])
	}
	err := s.pub.Publish(ctx, overlay.Event{
		Type:     overlay.EventShake,
		Username: payload.Username,
		Message:  message,
	})
	if err != nil {
		return "", fmt.Errorf("publish screen shake: %w", err)
	}
	return "Triggering an earthquake... Please wait.", nil
}
