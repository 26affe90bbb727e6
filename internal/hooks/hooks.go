// Package hooks contains lifecycle hooks that tie auxiliary services to the
// bot's start/ready/stop edges.
package hooks

import (
	"context"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/overlay"
	"github.com/stormix/stormbot/internal/relay"
)

// presenceSetter is implemented by adapters that can advertise a status line
// (the Discord gateway presence).
type presenceSetter interface {
	SetPresence(status string) error
}

// Presence advertises the bot's status on Discord once the gateway is ready.
type Presence struct {
	bot    *bot.Bot
	status string
}

// NewPresence creates the presence hook.
func NewPresence(b *bot.Bot, status string) *Presence {
	return &Presence{bot: b, status: status}
}

func (h *Presence) Name() string { return "presence" }

func (h *Presence) OnStart(context.Context) error { return nil }

func (h *Presence) OnReady(context.Context) error {
	adapter := h.bot.Adapter(bot.PlatformDiscord)
	if adapter == nil {
		return nil
	}
	setter, ok := adapter.(presenceSetter)
	if !ok {
		return nil
	}
	return setter.SetPresence(h.status)
}

func (h *Presence) OnStop() error { return nil }

// Overlay connects the overlay publisher when the bot starts and releases the
// connection on shutdown.
type Overlay struct {
	pub *overlay.Publisher
}

// NewOverlay creates the overlay lifecycle hook.
func NewOverlay(pub *overlay.Publisher) *Overlay {
	return &Overlay{pub: pub}
}

func (h *Overlay) Name() string { return "overlay" }

func (h *Overlay) OnStart(ctx context.Context) error { return h.pub.Connect(ctx) }

func (h *Overlay) OnReady(context.Context) error { return nil }

func (h *Overlay) OnStop() error { return h.pub.Close() }

// Relay flushes and closes the Kafka producer on shutdown.
type Relay struct {
	producer *relay.Producer
}

// NewRelay creates the relay lifecycle hook.
func NewRelay(producer *relay.Producer) *Relay {
	return &Relay{producer: producer}
}

func (h *Relay) Name() string { return "relay" }

func (h *Relay) OnStart(context.Context) error { return nil }

func (h *Relay) OnReady(context.Context) error { return nil }

func (h *Relay) OnStop() error { return h.producer.Close() }
