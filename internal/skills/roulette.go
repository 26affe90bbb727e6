package skills

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/stormix/stormbot/internal/bot"
)

// Roulette rolls a 0-9999 die for a viewer who bet their own chat
// privileges. The skill sends its verdicts itself; the returned reply is
// always empty.
type Roulette struct {
	bot.SkillBase
	log *slog.Logger
	mod Moderator

	roll func() int
}

// NewRoulette creates the roulette skill.
func NewRoulette(mod Moderator, log *slog.Logger) *Roulette {
	return &Roulette{
		SkillBase: bot.NewSkillBase(bot.ActivityRoulette),
		log:       log.With("skill", "roulette"),
		mod:       mod,
		roll:      func() int { return rand.IntN(10_000) },
	}
}

func (s *Roulette) Name() string { return "roulette" }

func (s *Roulette) Handle(ctx context.Context, activity bot.Activity) (string, error) {
	payload, ok := activity.Payload.(bot.RoulettePayload)
	if !ok {
		return "", fmt.Errorf("unexpected payload %T", activity.Payload)
	}
	c := payload.Ctx
	username := payload.Username
	roll := s.roll()

	if err := c.Adapter.Send(ctx, fmt.Sprintf("You rolled: %d", roll), c); err != nil {
		return "", err
	}

	ban := func(seconds int) error {
		return s.mod.TimeoutUser(ctx, username, time.Duration(seconds)*time.Second, "Roulette")
	}

	var verdict string
	switch {
	case roll == 0:
		if err := ban(0); err != nil {
			return "", err
		}
		verdict = fmt.Sprintf("@%s has been banned permanently :KEKBye:, his last words were: %s", username, payload.LastWords)
	case roll < 100:
		verdict = fmt.Sprintf("@%s gets a mod, but I'm too lazy to implement it, so I'll do it manually.", username)
	case roll < 300:
		verdict = fmt.Sprintf("@%s gets a VIP, but I'm too lazy to implement it, so I'll do it manually.", username)
	case roll < 5300:
		if err := ban(600); err != nil {
			return "", err
		}
		verdict = fmt.Sprintf("@%s has been timed out for 10 minutes. Last words: %s", username, payload.LastWords)
	case roll < 8300:
		if err := ban(3600); err != nil {
			return "", err
		}
		verdict = fmt.Sprintf("@%s has been timed out for 1 hour. Last words: %s", username, payload.LastWords)
	default:
		if err := ban(roll); err != nil {
			return "", err
		}
		verdict = fmt.Sprintf("@%s has been timed out for %d seconds. Last words: %s", username, roll, payload.LastWords)
	}

	return "", c.Adapter.Send(ctx, verdict, c)
}
