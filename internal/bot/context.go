// Package bot implements the dispatch core: the adapter contract, the
// command processor, the activity brain and the bot lifecycle orchestrator.
package bot

import "time"

// Platform identifies a chat transport.
type Platform string

const (
	PlatformDiscord Platform = "discord"
	PlatformTwitch  Platform = "twitch"
	PlatformKick    Platform = "kick"
)

// Message is the adapter-specific payload of a Context. It is a closed sum
// over the supported transports; consumption sites switch exhaustively on the
// concrete type instead of downcasting by name tag.
type Message interface {
	Platform() Platform
	message()
}

// DiscordMessage is the normalized form of a Discord gateway message.
type DiscordMessage struct {
	ID         string
	ChannelID  string
	GuildID    string
	AuthorID   string
	AuthorName string
	AuthorBot  bool
	DM         bool
	Content    string
	Timestamp  time.Time
}

func (DiscordMessage) Platform() Platform { return PlatformDiscord }
func (DiscordMessage) message()           {}

// TwitchMessage is the normalized form of a Twitch IRC line.
type TwitchMessage struct {
	Channel   string
	Username  string
	Text      string
	Tags      map[string]string
	Whisper   bool
	Timestamp time.Time
}

func (TwitchMessage) Platform() Platform { return PlatformTwitch }
func (TwitchMessage) message()           {}

// KickMessage is the normalized form of a Kick chatroom event.
type KickMessage struct {
	ChatroomID     int
	SenderID       int
	SenderUsername string
	Content        string
	Timestamp      time.Time
}

func (KickMessage) Platform() Platform { return PlatformKick }
func (KickMessage) message()           {}

// Context is the per-interaction identity bundle handed through the dispatch
// pipeline. It is immutable once constructed and valid only for the lifetime
// of the triggering event; never persist one across event boundaries.
type Context struct {
	// TraceID correlates log lines for a single inbound event.
	TraceID string
	// AtAuthor is the transport-formatted mention of the sender.
	AtAuthor string
	// AtOwner is the transport-formatted mention of the configured owner.
	AtOwner string
	// Adapter is a back-reference to the originating adapter. Not owned.
	Adapter Adapter
	// Message is the adapter-specific payload.
	Message Message
}
