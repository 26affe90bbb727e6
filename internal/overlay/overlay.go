// Package overlay publishes stream-overlay events over Redis pub/sub. The
// browser-source overlay subscribes to the configured channel and reacts to
// the events (text-to-speech read-outs, screen shakes).
package overlay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/stormix/stormbot/internal/config"
)

// Event is the wire shape consumed by the overlay frontend.
type Event struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Event types understood by the overlay.
const (
	EventRead  = "read"
	EventShake = "shake"
)

// Publisher pushes overlay events to Redis. It is safe for concurrent use.
type Publisher struct {
	log     *slog.Logger
	cfg     config.RedisConfig
	client  *redis.Client
	channel string
}

// NewPublisher creates a publisher. Connect establishes the connection.
func NewPublisher(cfg config.RedisConfig, log *slog.Logger) *Publisher {
	return &Publisher{
		log:     log.With("component", "overlay"),
		cfg:     cfg,
		channel: cfg.OverlayChannel,
	}
}

// Connect dials Redis and verifies the connection.
func (p *Publisher) Connect(ctx context.Context) error {
	p.client = redis.NewClient(&redis.Options{
		Addr:     p.cfg.Addr,
		Password: p.cfg.Password,
		DB:       p.cfg.DB,
	})
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis at %s: %w", p.cfg.Addr, err)
	}
	return nil
}

// Publish sends one event to the overlay channel.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p.client == nil {
		return fmt.Errorf("overlay publisher not connected")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode overlay event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish overlay event: %w", err)
	}
	p.log.Debug("published overlay event", "type", event.Type, "username", event.Username)
	return nil
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
