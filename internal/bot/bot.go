package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stormix/stormbot/internal/config"
)

// State is the bot lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateSettingUp
	StateReady
	StateListening
	StateReloading
	StateShuttingDown
	StateStopped
)

// AdapterFactory builds an adapter against a bot instance. Adapters are
// reconstructed from their factories on Reload.
type AdapterFactory func(*Bot) Adapter

// Options assembles a bot. All registries are explicit lists built by the
// composition root; nothing is discovered at runtime.
type Options struct {
	Config           *config.Config
	Store            Datastore
	Caches           []Cache
	Skills           []Skill
	AdapterFactories []AdapterFactory
	CommandFactories []CommandFactory
	HookFactories    []HookFactory
	Logger           *slog.Logger
	// Now is the clock used by the cooldown gate. Defaults to time.Now.
	Now func() time.Time
}

// Bot owns one processor, one brain, the adapter set and the cache set, and
// coordinates setup/listen/reload/shutdown ordering.
type Bot struct {
	log   *slog.Logger
	store Datastore
	now   func() time.Time

	cfgMu sync.RWMutex
	cfg   *config.Config

	brain     *Brain
	processor *Processor

	adapterFactories []AdapterFactory
	commandFactories []CommandFactory
	hookFactories    []HookFactory

	mu       sync.Mutex
	state    State
	adapters []Adapter
	hooks    []Hook
	caches   []Cache
	primary  Cache
}

// New assembles a bot from options. Call Setup before Listen.
func New(opts Options) *Bot {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	b := &Bot{
		log:              log.With("component", "bot"),
		store:            opts.Store,
		now:              now,
		cfg:              opts.Config,
		adapterFactories: opts.AdapterFactories,
		commandFactories: opts.CommandFactories,
		hookFactories:    opts.HookFactories,
		caches:           opts.Caches,
		state:            StateUninitialized,
	}
	b.brain = NewBrain(log)
	b.processor = newProcessor(b, log)
	for _, skill := range opts.Skills {
		b.brain.Register(skill)
	}
	return b
}

// Prefix returns the current command prefix.
func (b *Bot) Prefix() string {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	return b.cfg.Prefix
}

// Config returns a snapshot of the current config.
func (b *Bot) Config() config.Config {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	return *b.cfg
}

// Brain returns the activity router.
func (b *Bot) Brain() *Brain { return b.brain }

// Processor returns the command processor.
func (b *Bot) Processor() *Processor { return b.processor }

// Store returns the persistent datastore.
func (b *Bot) Store() Datastore { return b.store }

// Logger returns the bot's base logger.
func (b *Bot) Logger() *slog.Logger { return b.log }

// State returns the current lifecycle state.
func (b *Bot) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Adapter returns the running adapter for a platform, or nil.
func (b *Bot) Adapter(name Platform) Adapter {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.adapters {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Storage returns the primary cache. Setup validates that exactly one
// exists, so this never fails after a successful Setup.
func (b *Bot) Storage() Cache {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.primary
}

// Setup prepares the bot: activity router and command tables first, then
// hooks, adapters, caches and finally the config overlay. Later steps may
// depend on earlier ones; in particular the cooldown gate needs the primary
// cache before any command can be processed.
func (b *Bot) Setup(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateUninitialized {
		b.mu.Unlock()
		return fmt.Errorf("setup called in state %d", b.state)
	}
	b.state = StateSettingUp
	b.mu.Unlock()

	b.log.Debug("setting up bot", "skills", b.brain.Skills())

	// Built-in and management commands.
	b.processor.Load()

	// Hooks.
	for _, factory := range b.hookFactories {
		hook := factory(b)
		if err := hook.OnStart(ctx); err != nil {
			return fmt.Errorf("start hook %s: %w", hook.Name(), err)
		}
		b.mu.Lock()
		b.hooks = append(b.hooks, hook)
		b.mu.Unlock()
	}

	// Adapters.
	for _, factory := range b.adapterFactories {
		adapter := factory(b)
		if err := adapter.Setup(ctx); err != nil {
			return fmt.Errorf("setup %s adapter: %w", adapter.Name(), err)
		}
		b.mu.Lock()
		b.adapters = append(b.adapters, adapter)
		b.mu.Unlock()
	}

	// Caches. Exactly one must be primary; anything else is a
	// configuration error that must surface now, not at first cooldown
	// check.
	var primary Cache
	for _, cache := range b.caches {
		if err := cache.Setup(ctx); err != nil {
			return fmt.Errorf("setup %s cache: %w", cache.Name(), err)
		}
		if cache.Primary() {
			if primary != nil {
				return fmt.Errorf("%w: %s and %s", ErrMultiplePrimaryCaches, primary.Name(), cache.Name())
			}
			primary = cache
		}
	}
	if primary == nil {
		return ErrNoPrimaryCache
	}
	b.mu.Lock()
	b.primary = primary
	b.mu.Unlock()

	// Config overlay from the datastore.
	if err := b.applyOverlay(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	b.state = StateReady
	b.mu.Unlock()
	return nil
}

func (b *Bot) applyOverlay(ctx context.Context) error {
	settings, err := b.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("load settings overlay: %w", err)
	}

	b.cfgMu.Lock()
	unknown := b.cfg.ApplyOverrides(settings)
	b.cfgMu.Unlock()

	for _, key := range unknown {
		b.log.Warn("ignoring unknown setting override", "key", key)
	}
	return nil
}

// Listen starts every adapter concurrently, waits for each to confirm its
// connection (or fail), then fires the ready hooks.
func (b *Bot) Listen(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateReady {
		b.mu.Unlock()
		return fmt.Errorf("listen called in state %d", b.state)
	}
	b.state = StateListening
	adapters := make([]Adapter, len(b.adapters))
	copy(adapters, b.adapters)
	hooks := make([]Hook, len(b.hooks))
	copy(hooks, b.hooks)
	b.mu.Unlock()

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(adapters)+len(hooks))
	)
	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, adapter Adapter) {
			defer wg.Done()
			if err := adapter.Listen(ctx); err != nil {
				errs[i] = fmt.Errorf("%s adapter: %w", adapter.Name(), err)
			}
		}(i, adapter)
	}
	wg.Wait()

	// Ready hooks fire only after every adapter confirmed its connection.
	for i, hook := range hooks {
		if err := hook.OnReady(ctx); err != nil {
			errs[len(adapters)+i] = fmt.Errorf("%s hook: %w", hook.Name(), err)
		}
	}

	return errors.Join(errs...)
}

// Reload re-creates hooks and adapters and reapplies the settings overlay,
// without tearing down the caches or the datastore connection. This is how a
// settings mutation takes effect without a process restart.
func (b *Bot) Reload(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateListening {
		b.mu.Unlock()
		return fmt.Errorf("reload called in state %d", b.state)
	}
	b.state = StateReloading
	oldAdapters := b.adapters
	oldHooks := b.hooks
	b.adapters = nil
	b.hooks = nil
	b.mu.Unlock()

	b.log.Info("reloading bot")

	for _, adapter := range oldAdapters {
		if err := adapter.Stop(); err != nil {
			b.log.Warn("failed to stop adapter during reload", "adapter", adapter.Name(), "error", err)
		}
	}
	for _, hook := range oldHooks {
		if err := hook.OnStop(); err != nil {
			b.log.Warn("failed to stop hook during reload", "hook", hook.Name(), "error", err)
		}
	}

	// Failures past this point are collected, not returned early: the old
	// adapters are already stopped, so the bot must always finish rebuilding
	// and return to Listening or it would be left with no live transports.
	var errs []error

	if err := b.applyOverlay(ctx); err != nil {
		errs = append(errs, err)
	}

	for _, factory := range b.hookFactories {
		hook := factory(b)
		if err := hook.OnStart(ctx); err != nil {
			errs = append(errs, fmt.Errorf("restart hook %s: %w", hook.Name(), err))
			continue
		}
		b.mu.Lock()
		b.hooks = append(b.hooks, hook)
		b.mu.Unlock()
	}

	for _, factory := range b.adapterFactories {
		adapter := factory(b)
		if err := adapter.Setup(ctx); err != nil {
			errs = append(errs, fmt.Errorf("re-setup %s adapter: %w", adapter.Name(), err))
			continue
		}
		b.mu.Lock()
		b.adapters = append(b.adapters, adapter)
		b.mu.Unlock()
		if err := adapter.Listen(ctx); err != nil {
			errs = append(errs, fmt.Errorf("re-listen %s adapter: %w", adapter.Name(), err))
		}
	}

	b.mu.Lock()
	b.state = StateListening
	hooks := make([]Hook, len(b.hooks))
	copy(hooks, b.hooks)
	b.mu.Unlock()

	for _, hook := range hooks {
		if err := hook.OnReady(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s hook: %w", hook.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Shutdown stops adapters, hooks, caches and the datastore concurrently. It
// tolerates any subset already being stopped.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.state == StateStopped {
		b.mu.Unlock()
		return nil
	}
	b.state = StateShuttingDown
	adapters := b.adapters
	hooks := b.hooks
	caches := b.caches
	b.mu.Unlock()

	b.log.Debug("stopping bot")

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}

	for _, adapter := range adapters {
		wg.Add(1)
		go func(adapter Adapter) {
			defer wg.Done()
			record(adapter.Stop())
		}(adapter)
	}
	for _, hook := range hooks {
		wg.Add(1)
		go func(hook Hook) {
			defer wg.Done()
			record(hook.OnStop())
		}(hook)
	}
	for _, cache := range caches {
		wg.Add(1)
		go func(cache Cache) {
			defer wg.Done()
			record(cache.Stop())
		}(cache)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		record(b.store.Close())
	}()
	wg.Wait()

	b.mu.Lock()
	b.state = StateStopped
	b.mu.Unlock()

	return errors.Join(errs...)
}
