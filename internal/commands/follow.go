package commands

import (
	"context"
	"regexp"
	"strings"

	"github.com/stormix/stormbot/internal/bot"
)

var mentionRe = regexp.MustCompile(`@(\w+)`)

// Follow follows a user back on platforms that support it.
type Follow struct{}

// NewFollow creates the follow command.
func NewFollow(*bot.Bot) bot.Command {
	return &Follow{}
}

func (f *Follow) Name() string { return "follow" }

func (f *Follow) Options() bot.CommandOptions {
	return bot.CommandOptions{Aliases: []string{"f"}, Enabled: true, OwnerOnly: true}
}

func (f *Follow) Run(ctx context.Context, c *bot.Context, args []string) error {
	match := mentionRe.FindStringSubmatch(strings.Join(args, " "))
	if match == nil {
		return c.Adapter.Send(ctx, "You need to provide a username to follow", c)
	}
	username := match[1]

	switch c.Message.(type) {
	case bot.TwitchMessage:
		// Twitch removed the follow endpoint from Helix; acknowledging is
		// all that is left to do programmatically.
		return c.Adapter.Send(ctx, "Gonna follow "+username, c)
	default:
		return nil
	}
}
