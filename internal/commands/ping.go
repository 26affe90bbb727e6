// Package commands implements the built-in commands registered with the
// processor at startup. Factories close over whatever the command needs so
// the registry stays a plain list.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/stormix/stormbot/internal/bot"
)

// latencyReporter is implemented by adapters that track a transport
// round-trip (the Discord gateway heartbeat).
type latencyReporter interface {
	Latency() time.Duration
}

// Ping reports transport latency where the platform exposes one.
type Ping struct {
	now func() time.Time
}

// NewPing creates the ping command.
func NewPing(*bot.Bot) bot.Command {
	return &Ping{now: time.Now}
}

func (p *Ping) Name() string { return "ping" }

func (p *Ping) Options() bot.CommandOptions {
	return bot.CommandOptions{Enabled: true}
}

func (p *Ping) Run(ctx context.Context, c *bot.Context, _ []string) error {
	switch m := c.Message.(type) {
	case bot.DiscordMessage:
		if reporter, ok := c.Adapter.(latencyReporter); ok {
			ms := reporter.Latency().Milliseconds()
			return c.Adapter.Send(ctx, fmt.Sprintf("Pong! Took %dms", ms), c)
		}
		return c.Adapter.Send(ctx, "Pong!", c)
	case bot.TwitchMessage:
		diff := p.now().Sub(m.Timestamp)
		if diff < 0 {
			diff = -diff
		}
		return c.Adapter.Send(ctx, fmt.Sprintf("Pong! Took %dms", diff.Milliseconds()), c)
	case bot.KickMessage:
		return c.Adapter.Send(ctx, "Pong!", c)
	}
	return nil
}
