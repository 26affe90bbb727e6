package commands

import (
	"context"
	"fmt"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/version"
)

// Version reports the running release.
type Version struct{}

// NewVersion creates the version command.
func NewVersion(*bot.Bot) bot.Command {
	return &Version{}
}

func (v *Version) Name() string { return "version" }

func (v *Version) Options() bot.CommandOptions {
	return bot.CommandOptions{Aliases: []string{"v"}, Cooldown: 10, Enabled: true}
}

func (v *Version) Run(ctx context.Context, c *bot.Context, _ []string) error {
	return c.Adapter.Send(ctx, fmt.Sprintf(
		"I am currently running version **%s** \n > https://github.com/stormix/stormbot/releases/tag/v%s\n",
		version.Version, version.Version,
	), c)
}
