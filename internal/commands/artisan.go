package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/store"
)

// ArtisanStore is the datastore surface the management commands mutate.
type ArtisanStore interface {
	FindCommand(ctx context.Context, name string) (*store.Command, error)
	ListCommands(ctx context.Context) ([]store.Command, error)
	CreateCommand(ctx context.Context, c store.Command) error
	UpdateCommand(ctx context.Context, name, response string, typ store.CommandType) error
	SetCommandEnabled(ctx context.Context, name string, enabled bool) error
	DeleteCommand(ctx context.Context, name string) error

	Settings(ctx context.Context) (map[string]string, error)
	FindSetting(ctx context.Context, name string) (string, bool, error)
	SetSetting(ctx context.Context, name, value string) error
	DeleteSetting(ctx context.Context, name string) error
}

// Artisan is the management entry point. Subcommands mutate the stored
// command table and the settings overlay.
type Artisan struct {
	bot  *bot.Bot
	subs []bot.Command
}

// NewArtisan creates the artisan command with its subcommand set.
func NewArtisan(b *bot.Bot, st ArtisanStore) bot.Command {
	return &Artisan{
		bot: b,
		subs: []bot.Command{
			newArtisanCommands(b, st),
			newArtisanConfig(b, st),
		},
	}
}

func (a *Artisan) Name() string { return "artisan" }

func (a *Artisan) Options() bot.CommandOptions {
	return bot.CommandOptions{Aliases: []string{"config"}, Enabled: true, OwnerOnly: true}
}

func (a *Artisan) Run(ctx context.Context, c *bot.Context, args []string) error {
	if len(args) == 0 {
		return c.Adapter.Send(ctx, "Please specify a command to run", c)
	}
	sub, rest := strings.ToLower(args[0]), args[1:]

	if sub == "help" {
		names := make([]string, len(a.subs))
		for i, s := range a.subs {
			names[i] = s.Name()
		}
		return c.Adapter.Send(ctx, "Available artisan commands: "+strings.Join(names, ", "), c)
	}

	for _, s := range a.subs {
		if bot.IsCommand(s, sub) {
			return s.Run(ctx, c, rest)
		}
	}
	return c.Adapter.Send(ctx, "Unknown artisan command", c)
}

// formatCommand renders a command name the way chat users type it.
func formatCommand(b *bot.Bot, name string) string {
	return fmt.Sprintf("`%s%s`", b.Prefix(), name)
}
