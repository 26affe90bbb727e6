package bot

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotInitialized is returned by adapter operations invoked before
	// Setup (or Listen) completed.
	ErrNotInitialized = errors.New("adapter not initialized")
	// ErrNoDirectMessages is returned by adapters whose transport has no
	// whisper/DM primitive. They fail explicitly instead of degrading to a
	// channel message.
	ErrNoDirectMessages = errors.New("transport does not support direct messages")
)

// Adapter normalizes one chat transport into the shared Context contract.
//
// Setup is idempotent and establishes transport resources without receiving
// events; it reports and skips (no error) when required credentials are
// absent. Listen returns only after the connection is confirmed established;
// events are then delivered on the adapter's own goroutines. Stop is safe to
// call even if Listen was never invoked: all adapters treat that as a no-op.
type Adapter interface {
	Name() Platform
	Setup(ctx context.Context) error
	Listen(ctx context.Context) error
	// CreateContext builds the normalized Context for a message. Pure; no
	// side effects.
	CreateContext(msg Message) *Context
	// Send delivers text into the channel the triggering message came from.
	Send(ctx context.Context, text string, c *Context) error
	// Message delivers a direct/whisper-style reply.
	Message(ctx context.Context, text string, c *Context) error
	// IsOwner reports whether the message sender is the configured owner.
	IsOwner(msg Message) bool
	Stop() error
}

// ParseCommand applies the shared command-prefix rule: a message is a command
// iff it starts with prefix; the remainder is split on runs of whitespace,
// the first token (case-folded) is the keyword and the rest are arguments.
func ParseCommand(prefix, text string) (keyword string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
