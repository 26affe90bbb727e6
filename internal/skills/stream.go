package skills

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/stormix/stormbot/internal/bot"
)

// Stream ends the broadcast by terminating the streaming software on the
// host the bot runs on.
type Stream struct {
	bot.SkillBase
	log *slog.Logger

	// run is the process kill hook, swappable in tests.
	run func(ctx context.Context) error
}

// NewStream creates the end-stream skill.
func NewStream(log *slog.Logger) *Stream {
	return &Stream{
		SkillBase: bot.NewSkillBase(bot.ActivityEndStream),
		log:       log.With("skill", "stream"),
		run:       killOBS,
	}
}

func killOBS(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, "pkill", "-f", "obs").CombinedOutput()
	if err != nil {
		return fmt.Errorf("pkill obs: %w: %s", err, out)
	}
	return nil
}

func (s *Stream) Name() string { return "stream" }

func (s *Stream) Handle(ctx context.Context, activity bot.Activity) (string, error) {
	if _, ok := activity.Payload.(bot.EndStreamPayload); !ok {
		return "", fmt.Errorf("unexpected payload %T", activity.Payload)
	}

	if err := s.run(ctx); err != nil {
		return "", fmt.Errorf("end stream: %w", err)
	}
	s.log.Info("ended the stream")
	return "OBS has been closed. Have a good day everyone!", nil
}
