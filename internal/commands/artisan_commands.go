package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/store"
)

// artisanCommands manages the stored command table.
type artisanCommands struct {
	bot   *bot.Bot
	store ArtisanStore
}

func newArtisanCommands(b *bot.Bot, st ArtisanStore) bot.Command {
	return &artisanCommands{bot: b, store: st}
}

func (a *artisanCommands) Name() string { return "commands" }

func (a *artisanCommands) Options() bot.CommandOptions {
	return bot.CommandOptions{Enabled: true, OwnerOnly: true}
}

func (a *artisanCommands) Run(ctx context.Context, c *bot.Context, args []string) error {
	if len(args) == 0 {
		return a.help(ctx, c, "")
	}
	switch args[0] {
	case "list":
		return a.list(ctx, c)
	case "enable":
		return a.toggle(ctx, c, arg(args, 1), true)
	case "disable":
		return a.toggle(ctx, c, arg(args, 1), false)
	case "add":
		return a.add(ctx, c, args[1:])
	case "edit":
		return a.edit(ctx, c, args[1:])
	case "delete", "remove":
		return a.remove(ctx, c, arg(args, 1))
	case "help":
		return a.help(ctx, c, arg(args, 1))
	default:
		return a.help(ctx, c, "")
	}
}

func arg(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	return args[i]
}

func (a *artisanCommands) list(ctx context.Context, c *bot.Context) error {
	cmds, err := a.store.ListCommands(ctx)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		return c.Adapter.Send(ctx, "No stored commands.", c)
	}

	lines := make([]string, len(cmds))
	for i, cmd := range cmds {
		state := "disabled"
		if cmd.Enabled {
			state = "enabled"
		}
		lines[i] = fmt.Sprintf("%s: %s (%s)", formatCommand(a.bot, cmd.Name), cmd.Response, state)
	}
	return c.Adapter.Send(ctx, strings.Join(lines, "\n"), c)
}

func (a *artisanCommands) toggle(ctx context.Context, c *bot.Context, name string, enabled bool) error {
	if name == "" {
		return a.help(ctx, c, "")
	}
	existing, err := a.store.FindCommand(ctx, name)
	if err != nil {
		return err
	}
	if existing == nil {
		return c.Adapter.Send(ctx, fmt.Sprintf("Command %s does not exist. Use %s to add it.",
			formatCommand(a.bot, name), formatCommand(a.bot, "artisan commands add")), c)
	}
	if err := a.store.SetCommandEnabled(ctx, name, enabled); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return c.Adapter.Send(ctx, fmt.Sprintf("Command %s has been %s", formatCommand(a.bot, name), state), c)
}

func (a *artisanCommands) add(ctx context.Context, c *bot.Context, args []string) error {
	if len(args) < 2 {
		return a.help(ctx, c, "add")
	}
	spec, err := parseResponseSpec(args)
	if err != nil {
		return c.Adapter.Send(ctx, "Missing closing quote in the response!", c)
	}

	existing, err := a.store.FindCommand(ctx, spec.Command)
	if err != nil {
		return err
	}
	if existing != nil {
		return c.Adapter.Send(ctx, fmt.Sprintf("Command %s already exists. Use %s to edit it.",
			formatCommand(a.bot, spec.Command), formatCommand(a.bot, "artisan commands edit")), c)
	}

	err = a.store.CreateCommand(ctx, store.Command{
		Name:     spec.Command,
		Response: spec.Response,
		Type:     spec.Type,
		Enabled:  true,
		Cooldown: spec.Cooldown,
	})
	if err != nil {
		return err
	}
	return c.Adapter.Send(ctx, "Added command "+formatCommand(a.bot, spec.Command), c)
}

func (a *artisanCommands) edit(ctx context.Context, c *bot.Context, args []string) error {
	if len(args) < 2 {
		return a.help(ctx, c, "edit")
	}
	spec, err := parseResponseSpec(args)
	if err != nil {
		return c.Adapter.Send(ctx, "Missing closing quote in the response!", c)
	}

	existing, err := a.store.FindCommand(ctx, spec.Command)
	if err != nil {
		return err
	}
	if existing == nil {
		return c.Adapter.Send(ctx, fmt.Sprintf("Command %s does not exist. Use %s to add it.",
			formatCommand(a.bot, spec.Command), formatCommand(a.bot, "artisan commands add")), c)
	}

	if err := a.store.UpdateCommand(ctx, spec.Command, spec.Response, spec.Type); err != nil {
		return err
	}
	return c.Adapter.Send(ctx, "Updated command "+formatCommand(a.bot, spec.Command), c)
}

func (a *artisanCommands) remove(ctx context.Context, c *bot.Context, name string) error {
	if name == "" {
		return a.help(ctx, c, "")
	}
	existing, err := a.store.FindCommand(ctx, name)
	if err != nil {
		return err
	}
	if existing == nil {
		return c.Adapter.Send(ctx, fmt.Sprintf("Command %s does not exist. Use %s to list all commands.",
			formatCommand(a.bot, name), formatCommand(a.bot, "artisan commands list")), c)
	}
	if err := a.store.DeleteCommand(ctx, name); err != nil {
		return err
	}
	return c.Adapter.Send(ctx, "Removed command "+formatCommand(a.bot, name), c)
}

func (a *artisanCommands) help(ctx context.Context, c *bot.Context, topic string) error {
	switch topic {
	case "add":
		return c.Adapter.Send(ctx, fmt.Sprintf("Usage: %s -> commands add <command> <response> <cooldown>", c.AtAuthor), c)
	case "edit":
		return c.Adapter.Send(ctx, fmt.Sprintf("Usage: %s -> commands edit <command> <response>", c.AtAuthor), c)
	default:
		return c.Adapter.Send(ctx, fmt.Sprintf("Usage: %s -> commands <list|enable|disable|add|remove|edit|help>", c.AtAuthor), c)
	}
}
