package commands

import (
	"context"
	"fmt"

	"github.com/stormix/stormbot/internal/bot"
)

// Prefix tells the channel which character summons the bot.
type Prefix struct {
	bot *bot.Bot
}

// NewPrefix creates the prefix command.
func NewPrefix(b *bot.Bot) bot.Command {
	return &Prefix{bot: b}
}

func (p *Prefix) Name() string { return "prefix" }

func (p *Prefix) Options() bot.CommandOptions {
	return bot.CommandOptions{Enabled: true}
}

func (p *Prefix) Run(ctx context.Context, c *bot.Context, _ []string) error {
	return c.Adapter.Send(ctx, fmt.Sprintf("My prefix is `%s`", p.bot.Prefix()), c)
}
