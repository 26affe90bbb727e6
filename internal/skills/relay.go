package skills

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/relay"
)

// RelayPublisher writes chat lines to the relay topic.
type RelayPublisher interface {
	Publish(ctx context.Context, msg relay.Message) error
}

// Relay mirrors read-chat redemptions onto the Kafka relay topic for
// downstream consumers.
type Relay struct {
	bot.SkillBase
	log *slog.Logger
	pub RelayPublisher
}

// NewRelay creates the relay skill.
func NewRelay(pub RelayPublisher, log *slog.Logger) *Relay {
	return &Relay{
		SkillBase: bot.NewSkillBase(bot.ActivityReadChat),
		log:       log.With("skill", "relay"),
		pub:       pub,
	}
}

func (s *Relay) Name() string { return "relay" }

func (s *Relay) Handle(ctx context.Context, activity bot.Activity) (string, error) {
	payload, ok := activity.Payload.(bot.ReadChatPayload)
	if !ok {
		return "", fmt.Errorf("unexpected payload %T", activity.Payload)
	}

	msg := relay.Message{
		Username:  payload.Username,
		Text:      payload.Text,
		Timestamp: time.Now(),
	}
	if c := payload.Ctx; c != nil {
		if c.Adapter != nil {
			msg.Platform = string(c.Adapter.Name())
		}
		if m, ok := c.Message.(bot.TwitchMessage); ok {
			msg.Channel = m.Channel
		}
	}

	if err := s.pub.Publish(ctx, msg); err != nil {
		return "", fmt.Errorf("relay chat line: %w", err)
	}
	// The reader skill answers in chat; the relay stays silent.
	return "", nil
}
