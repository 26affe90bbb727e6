package skills

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/stormix/stormbot/internal/bot"
)

// Hitman is roulette with a target: the requester bets someone else's chat
// privileges, with backfire odds.
type Hitman struct {
	bot.SkillBase
	log     *slog.Logger
	mod     Moderator
	botName string

	roll func() int
}

// NewHitman creates the hitman skill. botName guards against hits on the bot
// itself.
func NewHitman(mod Moderator, botName string, log *slog.Logger) *Hitman {
	return &Hitman{
		SkillBase: bot.NewSkillBase(bot.ActivityHitman),
		log:       log.With("skill", "hitman"),
		mod:       mod,
		botName:   botName,
		roll:      func() int { return rand.IntN(10_000) },
	}
}

func (s *Hitman) Name() string { return "hitman" }

func (s *Hitman) Handle(ctx context.Context, activity bot.Activity) (string, error) {
	payload, ok := activity.Payload.(bot.HitmanPayload)
	if !ok {
		return "", fmt.Errorf("unexpected payload %T", activity.Payload)
	}
	c := payload.Ctx
	username := payload.Username
	target := payload.Target

	ban := func(who string, seconds int) error {
		return s.mod.TimeoutUser(ctx, who, time.Duration(seconds)*time.Second, "Roulette")
	}

	if strings.Contains(strings.ToLower(target), strings.ToLower(s.botName)) {
		if err := c.Adapter.Send(ctx, fmt.Sprintf("@%s tried to hit me, what a loser. Get banned for 30min.", username), c); err != nil {
			return "", err
		}
		return "", ban(username, 1800)
	}

	if strings.EqualFold(username, target) {
		if err := c.Adapter.Send(ctx, fmt.Sprintf("@%s tried to hit himself, what a loser.", username), c); err != nil {
			return "", err
		}
		return "", ban(username, 60)
	}

	if strings.Contains(target, "@") {
		return "", c.Adapter.Send(ctx, fmt.Sprintf("@%s don't include @ in the target's name. You will not be refunded LOL.", username), c)
	}

	roll := s.roll()
	if err := c.Adapter.Send(ctx, fmt.Sprintf("@%s %s placed a hit on you. You rolled: %d", target, username, roll), c); err != nil {
		return "", err
	}

	var verdict string
	switch {
	case roll == 0:
		if err := ban(username, 0); err != nil {
			return "", err
		}
		if err := ban(target, 0); err != nil {
			return "", err
		}
		verdict = fmt.Sprintf("@%s and %s are both banned permanently KEKBye.", username, target)
	case roll < 100:
		verdict = fmt.Sprintf("@%s gets a mod, but I'm too lazy to implement it, so I'll do it manually.", target)
	case roll < 300:
		verdict = fmt.Sprintf("@%s gets a VIP, but I'm too lazy to implement it, so I'll do it manually.", target)
	case roll < 7000:
		if err := ban(target, 600); err != nil {
			return "", err
		}
		verdict = fmt.Sprintf("@%s has been timed out for 10 minutes by %s.", target, username)
	default:
		// The hit backfires.
		if err := ban(username, roll); err != nil {
			return "", err
		}
		verdict = fmt.Sprintf("@%s has been timed out for %d seconds after placing a hit on @%s.", username, roll, target)
	}

	return "", c.Adapter.Send(ctx, verdict, c)
}
