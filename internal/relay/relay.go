// Package relay mirrors chat traffic onto a Kafka topic so downstream
// consumers (archival, analytics, moderation tooling) see every message
// without holding their own platform connections.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/stormix/stormbot/internal/config"
)

// Message is the relayed chat line.
type Message struct {
	Platform  string    `json:"platform"`
	Channel   string    `json:"channel"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Producer writes chat messages to the relay topic. Keys are the platform
// name so per-platform ordering survives partitioning.
type Producer struct {
	log    *slog.Logger
	writer *kafka.Writer
}

// NewProducer creates a Kafka producer for the relay topic. Brokers is a
// comma-separated list.
func NewProducer(cfg config.RelayConfig, log *slog.Logger) *Producer {
	return &Producer{
		log: log.With("component", "relay"),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// Publish writes one chat line to the relay topic.
func (p *Producer) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode relay message: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Platform),
		Value: payload,
		Time:  msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("write relay message: %w", err)
	}
	p.log.Debug("relayed chat message", "platform", msg.Platform, "username", msg.Username)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
