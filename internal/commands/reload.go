package commands

import (
	"context"

	"github.com/stormix/stormbot/internal/bot"
)

// Reload re-creates the adapters and hooks and reapplies the settings
// overlay.
type Reload struct {
	bot *bot.Bot
}

// NewReload creates the reload command.
func NewReload(b *bot.Bot) bot.Command {
	return &Reload{bot: b}
}

func (r *Reload) Name() string { return "reload" }

func (r *Reload) Options() bot.CommandOptions {
	return bot.CommandOptions{Enabled: true, OwnerOnly: true}
}

func (r *Reload) Run(ctx context.Context, c *bot.Context, _ []string) error {
	if err := r.bot.Reload(ctx); err != nil {
		return err
	}
	return liveAdapter(r.bot, c).Send(ctx, "Reloaded config", c)
}

// liveAdapter returns the bot's current adapter for the context's platform.
// A reload stops the adapter the triggering message arrived on, so replies
// sent after one must go through the replacement instance.
func liveAdapter(b *bot.Bot, c *bot.Context) bot.Adapter {
	if adapter := b.Adapter(c.Adapter.Name()); adapter != nil {
		return adapter
	}
	return c.Adapter
}
