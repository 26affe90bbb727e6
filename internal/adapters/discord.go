// Package adapters implements the chat transports. Each adapter normalizes
// its platform's events into the shared context contract and forwards
// commands to the processor and conversational traffic to the brain.
package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/config"
)

// Discord bridges the Discord gateway. Direct messages are treated as
// conversation, guild messages only react to the command prefix.
type Discord struct {
	log *slog.Logger
	bot *bot.Bot
	cfg config.DiscordConfig

	mu      sync.Mutex
	session *discordgo.Session
	opened  bool
	ready   chan struct{}
}

// NewDiscord creates the Discord adapter from the bot's current config.
func NewDiscord(b *bot.Bot) *Discord {
	return &Discord{
		log:   b.Logger().With("adapter", "discord"),
		bot:   b,
		cfg:   b.Config().Adapters.Discord,
		ready: make(chan struct{}),
	}
}

func (d *Discord) Name() bot.Platform { return bot.PlatformDiscord }

// Setup creates the gateway session. Missing credentials are reported and
// skipped so the rest of the bot still comes up.
func (d *Discord) Setup(context.Context) error {
	if !d.cfg.Enabled || d.cfg.Token == "" {
		d.log.Warn("discord adapter disabled or missing token, skipping")
		return nil
	}

	session, err := discordgo.New("Bot " + d.cfg.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		d.mu.Lock()
		select {
		case <-d.ready:
		default:
			close(d.ready)
		}
		d.mu.Unlock()
		d.log.Info("discord gateway ready", "username", r.User.Username)
	})
	session.AddHandler(d.onMessage)

	d.mu.Lock()
	d.session = session
	d.mu.Unlock()
	return nil
}

// Listen opens the gateway connection and returns once the ready event
// arrives.
func (d *Discord) Listen(ctx context.Context) error {
	d.mu.Lock()
	session := d.session
	d.mu.Unlock()
	if session == nil {
		return nil
	}

	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	d.mu.Lock()
	d.opened = true
	d.mu.Unlock()

	select {
	case <-d.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("discord gateway did not become ready")
	}
}

func (d *Discord) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	ts := m.Timestamp
	msg := bot.DiscordMessage{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		GuildID:    m.GuildID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		AuthorBot:  m.Author.Bot,
		DM:         m.GuildID == "",
		Content:    m.Content,
		Timestamp:  ts,
	}
	c := d.CreateContext(msg)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if msg.DM {
		results := d.bot.Brain().Handle(ctx, bot.Activity{
			Type: bot.ActivityConversation,
			Payload: bot.ConversationPayload{
				Text:     msg.Content,
				FromID:   msg.AuthorID,
				FromName: msg.AuthorName,
				Ctx:      c,
			},
		})
		if reply := bot.Replies(results); reply != "" {
			if err := d.Send(ctx, reply, c); err != nil {
				d.log.Error("failed to reply to dm", "error", err)
			}
		}
		return
	}

	keyword, args, ok := bot.ParseCommand(d.bot.Prefix(), msg.Content)
	if !ok {
		return
	}
	d.bot.Processor().Run(ctx, keyword, args, c)
}

// CreateContext normalizes a Discord message into the shared context.
func (d *Discord) CreateContext(msg bot.Message) *bot.Context {
	m, _ := msg.(bot.DiscordMessage)
	return &bot.Context{
		TraceID:  uuid.NewString(),
		AtAuthor: "<@" + m.AuthorID + ">",
		AtOwner:  "<@" + d.cfg.OwnerID + ">",
		Adapter:  d,
		Message:  msg,
	}
}

// Send replies into the channel the triggering message came from.
func (d *Discord) Send(_ context.Context, text string, c *bot.Context) error {
	d.mu.Lock()
	session := d.session
	d.mu.Unlock()
	if session == nil {
		return bot.ErrNotInitialized
	}
	m, ok := c.Message.(bot.DiscordMessage)
	if !ok {
		return fmt.Errorf("context does not carry a discord message")
	}
	_, err := session.ChannelMessageSend(m.ChannelID, text)
	return err
}

// Message delivers a direct message to the triggering author.
func (d *Discord) Message(_ context.Context, text string, c *bot.Context) error {
	d.mu.Lock()
	session := d.session
	d.mu.Unlock()
	if session == nil {
		return bot.ErrNotInitialized
	}
	m, ok := c.Message.(bot.DiscordMessage)
	if !ok {
		return fmt.Errorf("context does not carry a discord message")
	}
	channel, err := session.UserChannelCreate(m.AuthorID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	_, err = session.ChannelMessageSend(channel.ID, text)
	return err
}

// IsOwner reports whether the sender is the configured owner account.
func (d *Discord) IsOwner(msg bot.Message) bool {
	m, ok := msg.(bot.DiscordMessage)
	return ok && d.cfg.OwnerID != "" && m.AuthorID == d.cfg.OwnerID
}

// Latency reports the gateway heartbeat round-trip.
func (d *Discord) Latency() time.Duration {
	d.mu.Lock()
	session := d.session
	d.mu.Unlock()
	if session == nil {
		return 0
	}
	return session.HeartbeatLatency()
}

// SetPresence updates the gateway presence. Requires an open session.
func (d *Discord) SetPresence(status string) error {
	d.mu.Lock()
	session, opened := d.session, d.opened
	d.mu.Unlock()
	if session == nil || !opened {
		return bot.ErrNotInitialized
	}
	return session.UpdateGameStatus(0, status)
}

// Stop closes the gateway connection; a no-op if Listen never ran.
func (d *Discord) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil || !d.opened {
		return nil
	}
	d.opened = false
	return d.session.Close()
}
