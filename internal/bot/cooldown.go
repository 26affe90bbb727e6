package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// cooldownGate rate-limits command execution per author, backed by a TTL
// cache entry. The read-then-write sequence is not atomic: two
// near-simultaneous invocations by the same author may both pass if the
// cache write has not completed yet. That is an accepted risk for a chat
// bot, not something this gate tries to fix.
type cooldownGate struct {
	cache Cache
	log   *slog.Logger
	now   func() time.Time
}

// check evaluates the cooldown gate for a command invocation. It returns a
// user-facing rejection message, or "" when the invocation may proceed (in
// which case the cooldown window has been re-armed).
func (g *cooldownGate) check(ctx context.Context, meta commandMeta, c *Context) (string, error) {
	if meta.Cooldown <= 0 {
		return "", nil
	}

	key := fmt.Sprintf("%s:%s:%s", c.Adapter.Name(), c.AtAuthor, meta.Name)

	stored, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read cooldown %s: %w", key, err)
	}
	if ok {
		g.log.Debug("command on cooldown", "command", meta.Name, "author", c.AtAuthor)
		remaining := meta.Cooldown
		if started, err := time.Parse(time.RFC3339, stored); err == nil {
			remaining = meta.Cooldown - int(g.now().Sub(started).Seconds())
		}
		// The entry's own TTL should evict it before remaining reaches
		// zero; never report a non-positive wait regardless.
		if remaining < 1 {
			remaining = 1
		}
		return fmt.Sprintf("%s this command is on cooldown. Please wait **%d** seconds.", c.AtAuthor, remaining), nil
	}

	err = g.cache.Set(ctx, key, g.now().Format(time.RFC3339), time.Duration(meta.Cooldown)*time.Second)
	if err != nil {
		return "", fmt.Errorf("arm cooldown %s: %w", key, err)
	}
	return "", nil
}
