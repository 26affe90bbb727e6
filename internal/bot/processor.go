package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/stormix/stormbot/internal/store"
)

// Datastore is the narrow view of the persistent store the dispatch core
// needs. Management commands write to the store directly, never through the
// processor.
type Datastore interface {
	FindCommand(ctx context.Context, name string) (*store.Command, error)
	Settings(ctx context.Context) (map[string]string, error)
	Close() error
}

// Processor resolves a command keyword to an executed action, enforcing the
// authorization and cooldown gates. Run never propagates an error to the
// calling adapter: every failure is reported in-channel and logged, so one
// bad message cannot take down an adapter's event loop.
type Processor struct {
	bot *Bot
	log *slog.Logger

	mu       sync.Mutex
	commands []Command
	loaded   bool
}

func newProcessor(b *Bot, log *slog.Logger) *Processor {
	return &Processor{bot: b, log: log.With("component", "processor")}
}

// Register adds a built-in command.
func (p *Processor) Register(cmd Command) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = append(p.commands, cmd)
}

// Get returns the built-in command matching keyword by name or alias.
func (p *Processor) Get(keyword string) Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cmd := range p.commands {
		if IsCommand(cmd, keyword) {
			return cmd
		}
	}
	return nil
}

// Load instantiates the built-in command set from the statically assembled
// factory registry. It is a one-time operation; later calls are no-ops.
func (p *Processor) Load() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadLocked()
}

func (p *Processor) loadLocked() {
	if p.loaded {
		return
	}
	for _, factory := range p.bot.commandFactories {
		p.commands = append(p.commands, factory(p.bot))
	}
	p.loaded = true
	p.log.Debug("loaded built-in commands", "count", len(p.commands))
}

// Run resolves and executes a command invocation. All failures are caught
// here; the caller needs no error handling.
func (p *Processor) Run(ctx context.Context, keyword string, args []string, c *Context) {
	p.mu.Lock()
	if !p.loaded {
		p.loadLocked()
	}
	p.mu.Unlock()

	p.log.Debug("evaluating command",
		"command", keyword,
		"args", strings.Join(args, " "),
		"author", c.AtAuthor,
		"adapter", c.Adapter.Name(),
		"trace_id", c.TraceID,
	)

	if err := p.run(ctx, keyword, args, c); err != nil {
		p.log.Error("command failed", "command", keyword, "author", c.AtAuthor, "error", err)
		p.send(ctx, fmt.Sprintf("%s could not run this command! Ask %s to check the logs!", c.AtAuthor, c.AtOwner), c)
	}
}

func (p *Processor) run(ctx context.Context, keyword string, args []string, c *Context) error {
	// Built-in commands win over stored ones.
	if cmd := p.Get(keyword); cmd != nil {
		opts := cmd.Options()
		meta := commandMeta{Name: cmd.Name(), Enabled: opts.Enabled, OwnerOnly: opts.OwnerOnly, Cooldown: opts.Cooldown}
		if ok, err := p.gates(ctx, meta, c); err != nil || !ok {
			return err
		}
		return cmd.Run(ctx, c, args)
	}

	stored, err := p.bot.store.FindCommand(ctx, keyword)
	if err != nil {
		return fmt.Errorf("look up stored command %q: %w", keyword, err)
	}

	if stored == nil {
		p.send(ctx, fmt.Sprintf("%s Command `%s%s` not found!", c.AtAuthor, p.bot.Prefix(), keyword), c)
		return nil
	}

	if stored.Response == "" {
		p.send(ctx, fmt.Sprintf("%s probably forgot to add a response to this command!", c.AtOwner), c)
		return nil
	}

	meta := commandMeta{Name: stored.Name, Enabled: stored.Enabled, OwnerOnly: false, Cooldown: stored.Cooldown}
	if ok, err := p.gates(ctx, meta, c); err != nil || !ok {
		return err
	}

	switch stored.Type {
	case store.CommandStatic:
		p.send(ctx, stored.Response, c)
	case store.CommandDynamic:
		// Deliberate stub: running stored code is unsupported.
		p.send(ctx, fmt.Sprintf("%s dynamic commands are not supported!", c.AtOwner), c)
	default:
		p.send(ctx, fmt.Sprintf("%s this command has an invalid type!", c.AtOwner), c)
	}
	return nil
}

// gates runs the authorization and cooldown gates. It reports false when the
// invocation was rejected (the rejection has already been sent).
func (p *Processor) gates(ctx context.Context, meta commandMeta, c *Context) (bool, error) {
	if rejection := checkFlags(meta, c); rejection != "" {
		p.send(ctx, rejection, c)
		return false, nil
	}

	gate := &cooldownGate{cache: p.bot.Storage(), log: p.log, now: p.bot.now}
	rejection, err := gate.check(ctx, meta, c)
	if err != nil {
		return false, err
	}
	if rejection != "" {
		p.send(ctx, rejection, c)
		return false, nil
	}
	return true, nil
}

func (p *Processor) send(ctx context.Context, text string, c *Context) {
	if err := c.Adapter.Send(ctx, text, c); err != nil {
		p.log.Error("failed to send reply", "adapter", c.Adapter.Name(), "error", err)
	}
}
