package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/config"
)

const (
	// Kick has no public API; these are the endpoints its own web client
	// uses.
	kickAPIURL    = "https://kick.com/api/v2"
	kickPusherURL = "wss://ws-us2.pusher.com/app/eb1d5f283081a78b932c?protocol=7&client=js&version=7.6.0&flash=false"
)

// Kick reads a channel's chatroom through Kick's Pusher websocket and sends
// through the private message endpoint. The transport is receive-oriented;
// there are no whispers.
type Kick struct {
	log *slog.Logger
	bot *bot.Bot
	cfg config.KickConfig

	// Overridable for tests.
	APIURL    string
	PusherURL string

	http *http.Client

	mu         sync.Mutex
	conn       *websocket.Conn
	chatroomID int
	stopped    bool
}

// NewKick creates the Kick adapter from the bot's current config.
func NewKick(b *bot.Bot) *Kick {
	return &Kick{
		log:       b.Logger().With("adapter", "kick"),
		bot:       b,
		cfg:       b.Config().Adapters.Kick,
		APIURL:    kickAPIURL,
		PusherURL: kickPusherURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (k *Kick) Name() bot.Platform { return bot.PlatformKick }

// Setup resolves the channel's chatroom ID.
func (k *Kick) Setup(ctx context.Context) error {
	if !k.cfg.Enabled || k.cfg.Channel == "" {
		k.log.Warn("kick adapter disabled or missing channel, skipping")
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.APIURL+"/channels/"+k.cfg.Channel, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if k.cfg.Cookies != "" {
		req.Header.Set("Cookie", k.cfg.Cookies)
	}

	resp, err := k.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch kick channel %s: %w", k.cfg.Channel, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch kick channel %s: status %d", k.cfg.Channel, resp.StatusCode)
	}

	var channel struct {
		Chatroom struct {
			ID int `json:"id"`
		} `json:"chatroom"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&channel); err != nil {
		return fmt.Errorf("decode kick channel: %w", err)
	}
	if channel.Chatroom.ID == 0 {
		return fmt.Errorf("kick channel %s has no chatroom", k.cfg.Channel)
	}

	k.mu.Lock()
	k.chatroomID = channel.Chatroom.ID
	k.mu.Unlock()
	k.log.Debug("resolved kick chatroom", "channel", k.cfg.Channel, "chatroom_id", channel.Chatroom.ID)
	return nil
}

// Listen connects to the Pusher websocket and subscribes to the chatroom.
func (k *Kick) Listen(ctx context.Context) error {
	k.mu.Lock()
	chatroomID := k.chatroomID
	k.mu.Unlock()
	if chatroomID == 0 {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, k.PusherURL, nil)
	if err != nil {
		return fmt.Errorf("dial kick pusher: %w", err)
	}

	subscribe := map[string]any{
		"event": "pusher:subscribe",
		"data": map[string]string{
			"auth":    "",
			"channel": fmt.Sprintf("chatrooms.%d.v2", chatroomID),
		},
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe kick chatroom: %w", err)
	}

	k.mu.Lock()
	k.conn = conn
	k.stopped = false
	k.mu.Unlock()
	k.log.Info("kick chatroom connected", "channel", k.cfg.Channel)

	go k.readLoop(conn)
	return nil
}

type pusherFrame struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

type kickChatEvent struct {
	ChatroomID int    `json:"chatroom_id"`
	Content    string `json:"content"`
	Sender     struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	} `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

func (k *Kick) readLoop(conn *websocket.Conn) {
	for {
		var frame pusherFrame
		if err := conn.ReadJSON(&frame); err != nil {
			k.mu.Lock()
			stopped := k.stopped
			k.mu.Unlock()
			if !stopped {
				k.log.Error("kick pusher read failed", "error", err)
			}
			return
		}
		k.handleFrame(frame)
	}
}

func (k *Kick) handleFrame(frame pusherFrame) {
	switch frame.Event {
	case "pusher:ping":
		k.mu.Lock()
		conn := k.conn
		k.mu.Unlock()
		if conn != nil {
			if err := conn.WriteJSON(map[string]any{"event": "pusher:pong", "data": map[string]string{}}); err != nil {
				k.log.Error("failed to answer pusher ping", "error", err)
			}
		}
	case `App\Events\ChatMessageEvent`:
		var event kickChatEvent
		if err := json.Unmarshal([]byte(frame.Data), &event); err != nil {
			k.log.Error("failed to decode kick chat event", "error", err)
			return
		}
		k.handleChat(event)
	}
}

func (k *Kick) handleChat(event kickChatEvent) {
	if strings.EqualFold(event.Sender.Username, k.cfg.Username) {
		return
	}

	m := bot.KickMessage{
		ChatroomID:     event.ChatroomID,
		SenderID:       event.Sender.ID,
		SenderUsername: event.Sender.Username,
		Content:        event.Content,
		Timestamp:      event.CreatedAt,
	}
	c := k.CreateContext(m)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	keyword, args, ok := bot.ParseCommand(k.bot.Prefix(), m.Content)
	if !ok {
		return
	}
	k.bot.Processor().Run(ctx, keyword, args, c)
}

// CreateContext normalizes a Kick chat event into the shared context.
func (k *Kick) CreateContext(msg bot.Message) *bot.Context {
	m, _ := msg.(bot.KickMessage)
	return &bot.Context{
		TraceID:  uuid.NewString(),
		AtAuthor: "@" + m.SenderUsername,
		AtOwner:  "@" + k.cfg.Channel,
		Adapter:  k,
		Message:  msg,
	}
}

// Send posts into the chatroom through the web client's message endpoint.
func (k *Kick) Send(ctx context.Context, text string, _ *bot.Context) error {
	k.mu.Lock()
	chatroomID := k.chatroomID
	k.mu.Unlock()
	if chatroomID == 0 {
		return bot.ErrNotInitialized
	}

	payload, err := json.Marshal(map[string]string{"content": text, "type": "message"})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/messages/send/%d", k.APIURL, chatroomID), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+k.cfg.Token)
	if k.cfg.Cookies != "" {
		req.Header.Set("Cookie", k.cfg.Cookies)
	}

	resp, err := k.http.Do(req)
	if err != nil {
		return fmt.Errorf("send kick message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send kick message: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// Message is unsupported: Kick chat has no whisper primitive.
func (k *Kick) Message(context.Context, string, *bot.Context) error {
	return bot.ErrNoDirectMessages
}

// IsOwner treats the broadcaster as the owner.
func (k *Kick) IsOwner(msg bot.Message) bool {
	m, ok := msg.(bot.KickMessage)
	return ok && strings.EqualFold(m.SenderUsername, k.cfg.Channel)
}

// Stop closes the websocket; a no-op if Listen never connected.
func (k *Kick) Stop() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.conn == nil {
		return nil
	}
	k.stopped = true
	err := k.conn.Close()
	k.conn = nil
	return err
}
