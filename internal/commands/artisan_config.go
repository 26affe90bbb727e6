package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stormix/stormbot/internal/bot"
)

// artisanConfig manages the settings overlay. Setting or removing a key
// reloads the bot so the override takes effect immediately.
type artisanConfig struct {
	bot   *bot.Bot
	store ArtisanStore
}

func newArtisanConfig(b *bot.Bot, st ArtisanStore) bot.Command {
	return &artisanConfig{bot: b, store: st}
}

func (a *artisanConfig) Name() string { return "config" }

func (a *artisanConfig) Options() bot.CommandOptions {
	return bot.CommandOptions{Enabled: true, OwnerOnly: true}
}

func (a *artisanConfig) Run(ctx context.Context, c *bot.Context, args []string) error {
	if len(args) == 0 {
		return a.help(ctx, c, "")
	}
	switch args[0] {
	case "list":
		return a.list(ctx, c)
	case "set":
		return a.set(ctx, c, args[1:])
	case "delete", "remove":
		return a.remove(ctx, c, arg(args, 1))
	case "help":
		return a.help(ctx, c, arg(args, 1))
	default:
		return a.help(ctx, c, "")
	}
}

func (a *artisanConfig) list(ctx context.Context, c *bot.Context) error {
	settings, err := a.store.Settings(ctx)
	if err != nil {
		return err
	}

	// Discord gets one JSON block, chat transports get one line per key.
	if _, ok := c.Message.(bot.DiscordMessage); ok {
		formatted, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return err
		}
		return c.Adapter.Send(ctx, "**Settings**:\n```json\n"+string(formatted)+"```", c)
	}

	if len(settings) == 0 {
		return c.Adapter.Send(ctx, "No settings overrides.", c)
	}
	lines := make([]string, 0, len(settings))
	for name, value := range settings {
		lines = append(lines, name+": "+value)
	}
	return c.Adapter.Send(ctx, strings.Join(lines, "\n"), c)
}

func (a *artisanConfig) set(ctx context.Context, c *bot.Context, args []string) error {
	if len(args) < 2 {
		return a.help(ctx, c, "set")
	}
	key, value := args[0], args[1]

	_, existed, err := a.store.FindSetting(ctx, key)
	if err != nil {
		return err
	}
	if err := a.store.SetSetting(ctx, key, value); err != nil {
		return err
	}
	if err := a.bot.Reload(ctx); err != nil {
		return err
	}

	if existed {
		return liveAdapter(a.bot, c).Send(ctx, fmt.Sprintf("Setting %s updated.", key), c)
	}
	return liveAdapter(a.bot, c).Send(ctx, fmt.Sprintf("Setting %s created.", key), c)
}

func (a *artisanConfig) remove(ctx context.Context, c *bot.Context, key string) error {
	if key == "" {
		return a.help(ctx, c, "remove")
	}
	_, existed, err := a.store.FindSetting(ctx, key)
	if err != nil {
		return err
	}
	if !existed {
		return c.Adapter.Send(ctx, fmt.Sprintf("Setting %s does not exist.", key), c)
	}
	if err := a.store.DeleteSetting(ctx, key); err != nil {
		return err
	}
	if err := a.bot.Reload(ctx); err != nil {
		return err
	}
	return liveAdapter(a.bot, c).Send(ctx, fmt.Sprintf("Setting %s removed.", key), c)
}

func (a *artisanConfig) help(ctx context.Context, c *bot.Context, topic string) error {
	switch topic {
	case "set":
		return c.Adapter.Send(ctx, fmt.Sprintf("Usage: %s -> config set <key> <value>", c.AtAuthor), c)
	case "remove":
		return c.Adapter.Send(ctx, fmt.Sprintf("Usage: %s -> config remove|delete <key>", c.AtAuthor), c)
	case "list":
		return c.Adapter.Send(ctx, fmt.Sprintf("Usage: %s -> config list", c.AtAuthor), c)
	default:
		return c.Adapter.Send(ctx, fmt.Sprintf("Usage: %s -> config <list|set|remove>", c.AtAuthor), c)
	}
}
