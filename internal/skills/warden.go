package skills

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/providers"
)

// Moderator is the channel-moderation surface the warden and roulette skills
// act through.
type Moderator interface {
	CreatePoll(ctx context.Context, title string, choices []string, duration time.Duration) (string, error)
	GetPoll(ctx context.Context, pollID string) (*providers.Poll, error)
	EndPoll(ctx context.Context, pollID string) error
	TimeoutUser(ctx context.Context, username string, duration time.Duration, reason string) error
}

const (
	votekickPollDuration = 60 * time.Second
	votekickTimeout      = 10 * time.Minute
)

// Warden runs a votekick: the channel votes in a poll and the loser gets
// timed out.
type Warden struct {
	bot.SkillBase
	log *slog.Logger
	mod Moderator

	pollDuration time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewWarden creates the warden skill.
func NewWarden(mod Moderator, log *slog.Logger) *Warden {
	return &Warden{
		SkillBase:    bot.NewSkillBase(bot.ActivityVotekick),
		log:          log.With("skill", "warden"),
		mod:          mod,
		pollDuration: votekickPollDuration,
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Warden) Name() string { return "warden" }

func (s *Warden) Handle(ctx context.Context, activity bot.Activity) (string, error) {
	payload, ok := activity.Payload.(bot.VotekickPayload)
	if !ok {
		return "", fmt.Errorf("unexpected payload %T", activity.Payload)
	}
	if payload.Username == "" {
		return "Votekick needs a target!", nil
	}

	pollID, err := s.mod.CreatePoll(ctx,
		fmt.Sprintf("Kick %s?", payload.Username),
		[]string{"Yes", "No"},
		s.pollDuration,
	)
	if err != nil {
		return "", fmt.Errorf("create votekick poll: %w", err)
	}
	s.log.Info("votekick poll started", "target", payload.Username, "poll_id", pollID)

	if err := s.sleep(ctx, s.pollDuration); err != nil {
		return "", err
	}

	poll, err := s.mod.GetPoll(ctx, pollID)
	if err != nil {
		return "", fmt.Errorf("fetch votekick poll: %w", err)
	}
	if poll.Status == "ACTIVE" {
		if err := s.mod.EndPoll(ctx, pollID); err != nil {
			s.log.Warn("failed to end votekick poll", "poll_id", pollID, "error", err)
		}
	}

	var yes, no int
	for _, choice := range poll.Choices {
		switch choice.Title {
		case "Yes":
			yes = choice.Votes
		case "No":
			no = choice.Votes
		}
	}

	if yes <= no {
		return fmt.Sprintf("The people have spoken: %s stays. (%d yes / %d no)", payload.Username, yes, no), nil
	}
	if err := s.mod.TimeoutUser(ctx, payload.Username, votekickTimeout, "votekick"); err != nil {
		return "", fmt.Errorf("timeout %s: %w", payload.Username, err)
	}
	return fmt.Sprintf("The people have spoken: %s is out for 10 minutes! (%d yes / %d no)", payload.Username, yes, no), nil
}
