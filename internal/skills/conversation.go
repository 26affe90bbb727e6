// Package skills implements the activity handlers routed by the brain. Each
// skill declares the activity types it handles and owns its own provider
// failures; a broken integration degrades that skill, not the bot.
package skills

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/stormix/stormbot/internal/bot"
)

// TextGenerator produces a conversational reply given the exchange so far.
type TextGenerator interface {
	Query(ctx context.Context, text string, pastInputs, pastReplies []string) (string, error)
}

const conversationHistoryLimit = 10

// Conversation answers free-form messages through an inference provider,
// keeping a short rolling exchange history per author.
type Conversation struct {
	bot.SkillBase
	log *slog.Logger
	gen TextGenerator

	mu      sync.Mutex
	history map[string]*exchange
}

type exchange struct {
	inputs  []string
	replies []string
}

// NewConversation creates the conversation skill.
func NewConversation(gen TextGenerator, log *slog.Logger) *Conversation {
	return &Conversation{
		SkillBase: bot.NewSkillBase(bot.ActivityConversation),
		log:       log.With("skill", "conversation"),
		gen:       gen,
		history:   map[string]*exchange{},
	}
}

func (s *Conversation) Name() string { return "conversation" }

func (s *Conversation) Handle(ctx context.Context, activity bot.Activity) (string, error) {
	payload, ok := activity.Payload.(bot.ConversationPayload)
	if !ok {
		return "", fmt.Errorf("unexpected payload %T", activity.Payload)
	}

	key := payload.FromID
	if key == "" {
		key = payload.FromName
	}

	s.mu.Lock()
	past, ok := s.history[key]
	if !ok {
		past = &exchange{}
		s.history[key] = past
	}
	inputs := append([]string(nil), past.inputs...)
	replies := append([]string(nil), past.replies...)
	s.mu.Unlock()

	reply, err := s.gen.Query(ctx, payload.Text, inputs, replies)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}

	s.mu.Lock()
	past.inputs = append(past.inputs, payload.Text)
	past.replies = append(past.replies, reply)
	if len(past.inputs) > conversationHistoryLimit {
		past.inputs = past.inputs[len(past.inputs)-conversationHistoryLimit:]
		past.replies = past.replies[len(past.replies)-conversationHistoryLimit:]
	}
	s.mu.Unlock()

	return reply, nil
}
