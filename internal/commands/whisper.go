package commands

import (
	"context"
	"strings"

	"github.com/stormix/stormbot/internal/bot"
)

// Whisper feeds a message straight to the conversation pipeline and relays
// the answer back, useful for poking the inference provider on demand.
type Whisper struct {
	bot *bot.Bot
}

// NewWhisper creates the whisper command.
func NewWhisper(b *bot.Bot) bot.Command {
	return &Whisper{bot: b}
}

func (w *Whisper) Name() string { return "whisper" }

func (w *Whisper) Options() bot.CommandOptions {
	return bot.CommandOptions{Enabled: true, OwnerOnly: true}
}

func (w *Whisper) Run(ctx context.Context, c *bot.Context, args []string) error {
	text := strings.Join(args, " ")

	var payload *bot.ConversationPayload
	switch m := c.Message.(type) {
	case bot.DiscordMessage:
		payload = &bot.ConversationPayload{Text: text, FromID: m.AuthorID, FromName: m.AuthorName, Ctx: c}
	case bot.TwitchMessage:
		payload = &bot.ConversationPayload{Text: text, FromID: "#", FromName: m.Username, Ctx: c}
	}

	response := "Oopsie."
	if payload != nil {
		results := w.bot.Brain().Handle(ctx, bot.Activity{
			Type:    bot.ActivityConversation,
			Payload: *payload,
		})
		response = bot.Replies(results)
	}
	return c.Adapter.Send(ctx, c.AtAuthor+" "+response, c)
}
