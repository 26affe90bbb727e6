package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/config"
	"github.com/stormix/stormbot/internal/providers"
	"github.com/stormix/stormbot/internal/store"
)

const twitchIRCURL = "wss://irc-ws.chat.twitch.tv:443"

// Twitch speaks the Twitch IRC dialect over a websocket. Channel-points
// redemptions arrive as tagged PRIVMSGs and are translated to activities via
// the configured reward mapping.
type Twitch struct {
	log   *slog.Logger
	bot   *bot.Bot
	cfg   config.TwitchConfig
	creds providers.CredentialStore

	// URL is overridable for tests.
	URL string

	mu      sync.Mutex
	conn    *websocket.Conn
	stopped bool
}

// NewTwitch creates the Twitch adapter. The IRC password is the stored
// bot-account OAuth token, not a config value.
func NewTwitch(b *bot.Bot, creds providers.CredentialStore) *Twitch {
	return &Twitch{
		log:   b.Logger().With("adapter", "twitch"),
		bot:   b,
		cfg:   b.Config().Adapters.Twitch,
		creds: creds,
		URL:   twitchIRCURL,
	}
}

func (t *Twitch) Name() bot.Platform { return bot.PlatformTwitch }

// Setup validates configuration and credentials. The connection itself is
// established in Listen.
func (t *Twitch) Setup(ctx context.Context) error {
	if !t.cfg.Enabled || t.cfg.Username == "" || t.cfg.Channel == "" {
		t.log.Warn("twitch adapter disabled or missing account config, skipping")
		return nil
	}
	tokens, err := t.creds.GetCredentials(ctx, store.ServiceTwitch)
	if err != nil {
		return fmt.Errorf("load twitch credentials: %w", err)
	}
	if tokens == nil || tokens.AccessToken == "" {
		t.log.Warn("no twitch token stored, skipping adapter")
		t.cfg.Enabled = false
	}
	return nil
}

// Listen dials the IRC websocket, authenticates, joins the channel and
// blocks until the server confirms the login (001). Message handling then
// continues on the adapter's read loop.
func (t *Twitch) Listen(ctx context.Context) error {
	if !t.cfg.Enabled || t.cfg.Username == "" || t.cfg.Channel == "" {
		return nil
	}
	tokens, err := t.creds.GetCredentials(ctx, store.ServiceTwitch)
	if err != nil {
		return fmt.Errorf("load twitch credentials: %w", err)
	}
	if tokens == nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.URL, nil)
	if err != nil {
		return fmt.Errorf("dial twitch irc: %w", err)
	}
	t.mu.Lock()
	t.conn = conn
	t.stopped = false
	t.mu.Unlock()

	for _, line := range []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"PASS oauth:" + tokens.AccessToken,
		"NICK " + strings.ToLower(t.cfg.Username),
	} {
		if err := t.writeLine(line); err != nil {
			conn.Close()
			return err
		}
	}

	// Drain until the welcome numeric so a bad token fails Listen instead
	// of surfacing later.
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return fmt.Errorf("twitch irc handshake: %w", err)
		}
		welcomed := false
		for _, line := range strings.Split(string(payload), "\r\n") {
			if line == "" {
				continue
			}
			msg := parseIRC(line)
			if msg.Command == "001" {
				welcomed = true
			}
			if msg.Command == "NOTICE" && strings.Contains(msg.Trailing, "authentication failed") {
				conn.Close()
				return fmt.Errorf("twitch irc: %s", msg.Trailing)
			}
		}
		if welcomed {
			break
		}
	}

	if err := t.writeLine("JOIN #" + strings.ToLower(t.cfg.Channel)); err != nil {
		conn.Close()
		return err
	}
	t.log.Info("twitch irc connected", "channel", t.cfg.Channel)

	go t.readLoop(conn)
	return nil
}

func (t *Twitch) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			stopped := t.stopped
			t.mu.Unlock()
			if !stopped {
				t.log.Error("twitch irc read failed", "error", err)
			}
			return
		}
		for _, line := range strings.Split(string(payload), "\r\n") {
			if line == "" {
				continue
			}
			t.handleLine(parseIRC(line))
		}
	}
}

func (t *Twitch) handleLine(msg ircMessage) {
	switch msg.Command {
	case "PING":
		if err := t.writeLine("PONG :" + msg.Trailing); err != nil {
			t.log.Error("failed to answer ping", "error", err)
		}
	case "PRIVMSG":
		t.handleChat(msg, false)
	case "WHISPER":
		t.handleChat(msg, true)
	case "RECONNECT":
		t.log.Warn("twitch irc requested reconnect")
	}
}

func (t *Twitch) handleChat(msg ircMessage, whisper bool) {
	username := msg.Tags["display-name"]
	if username == "" {
		username = msg.Nick
	}
	if strings.EqualFold(username, t.cfg.Username) {
		return
	}

	m := bot.TwitchMessage{
		Channel:   t.cfg.Channel,
		Username:  username,
		Text:      msg.Trailing,
		Tags:      msg.Tags,
		Whisper:   whisper,
		Timestamp: time.Now(),
	}
	c := t.CreateContext(m)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if rewardID := msg.Tags["custom-reward-id"]; rewardID != "" {
		t.handleReward(ctx, rewardID, m, c)
		return
	}

	keyword, args, ok := bot.ParseCommand(t.bot.Prefix(), m.Text)
	if !ok {
		return
	}
	t.bot.Processor().Run(ctx, keyword, args, c)
}

func (t *Twitch) handleReward(ctx context.Context, rewardID string, m bot.TwitchMessage, c *bot.Context) {
	name, ok := t.cfg.RewardMapping[rewardID]
	if !ok {
		t.log.Debug("unmapped reward redemption", "reward_id", rewardID)
		return
	}
	activityType, ok := bot.ActivityTypeByName(name)
	if !ok {
		t.log.Warn("reward mapped to unknown activity type", "reward_id", rewardID, "activity", name)
		return
	}

	activity := rewardActivity(activityType, m.Username, m.Text, c)
	results := t.bot.Brain().Handle(ctx, activity)
	if reply := bot.Replies(results); reply != "" {
		if err := t.Send(ctx, reply, c); err != nil {
			t.log.Error("failed to send activity reply", "error", err)
		}
	}
}

// rewardActivity builds the activity for a redeemed channel-points reward.
// The redemption's text input feeds the payload field that the activity
// semantics call for.
func rewardActivity(activityType bot.ActivityType, username, text string, c *bot.Context) bot.Activity {
	var payload bot.Payload
	switch activityType {
	case bot.ActivityConversation:
		payload = bot.ConversationPayload{Text: text, FromName: username, Ctx: c}
	case bot.ActivityAddSongToQueue:
		payload = bot.SongRequestPayload{Song: text, Ctx: c}
	case bot.ActivitySkipSong:
		payload = bot.SkipSongPayload{Ctx: c}
	case bot.ActivityVotekick:
		payload = bot.VotekickPayload{Username: strings.TrimSpace(text), Ctx: c}
	case bot.ActivityEndStream:
		payload = bot.EndStreamPayload{Ctx: c}
	case bot.ActivityReadChat:
		payload = bot.ReadChatPayload{Username: username, Text: text, Ctx: c}
	case bot.ActivityShakeScreen:
		payload = bot.ShakeScreenPayload{Username: username, Text: text, Ctx: c}
	case bot.ActivityRoulette:
		payload = bot.RoulettePayload{Username: username, LastWords: text, Ctx: c}
	case bot.ActivityHitman:
		payload = bot.HitmanPayload{Username: username, Target: strings.TrimSpace(text), Ctx: c}
	}
	return bot.Activity{Type: activityType, Payload: payload}
}

// CreateContext normalizes a Twitch chat line into the shared context.
func (t *Twitch) CreateContext(msg bot.Message) *bot.Context {
	m, _ := msg.(bot.TwitchMessage)
	return &bot.Context{
		TraceID:  uuid.NewString(),
		AtAuthor: "@" + m.Username,
		AtOwner:  "@" + t.cfg.Channel,
		Adapter:  t,
		Message:  msg,
	}
}

// Send posts into the joined channel.
func (t *Twitch) Send(_ context.Context, text string, _ *bot.Context) error {
	return t.writeLine("PRIVMSG #" + strings.ToLower(t.cfg.Channel) + " :" + text)
}

// Message whispers the triggering user.
func (t *Twitch) Message(_ context.Context, text string, c *bot.Context) error {
	m, ok := c.Message.(bot.TwitchMessage)
	if !ok {
		return fmt.Errorf("context does not carry a twitch message")
	}
	return t.writeLine("PRIVMSG #" + strings.ToLower(t.cfg.Channel) + " :/w " + m.Username + " " + text)
}

// IsOwner treats the broadcaster as the owner.
func (t *Twitch) IsOwner(msg bot.Message) bool {
	m, ok := msg.(bot.TwitchMessage)
	return ok && strings.EqualFold(m.Username, t.cfg.Channel)
}

func (t *Twitch) writeLine(line string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return bot.ErrNotInitialized
	}
	return t.conn.WriteMessage(websocket.TextMessage, []byte(line+"\r\n"))
}

// Stop closes the websocket; a no-op if Listen never connected.
func (t *Twitch) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	t.stopped = true
	err := t.conn.Close()
	t.conn = nil
	return err
}
