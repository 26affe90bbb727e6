package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/stormix/stormbot/internal/config"
	"github.com/stormix/stormbot/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeAdapter struct {
	mu       sync.Mutex
	platform Platform
	owner    string
	sent     []string
	whispers []string
	setup    int
	listens  int
	stops    int
	setupErr error
	sendErr  error
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{platform: PlatformDiscord, owner: "owner"}
}

func (a *fakeAdapter) Name() Platform { return a.platform }

func (a *fakeAdapter) Setup(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setup++
	return a.setupErr
}

func (a *fakeAdapter) Listen(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listens++
	return nil
}

func (a *fakeAdapter) CreateContext(msg Message) *Context {
	return &Context{TraceID: "trace", AtAuthor: "@author", AtOwner: "@" + a.owner, Adapter: a, Message: msg}
}

func (a *fakeAdapter) Send(_ context.Context, text string, _ *Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sendErr != nil {
		return a.sendErr
	}
	a.sent = append(a.sent, text)
	return nil
}

func (a *fakeAdapter) Message(_ context.Context, text string, _ *Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.whispers = append(a.whispers, text)
	return nil
}

func (a *fakeAdapter) IsOwner(msg Message) bool {
	m, ok := msg.(DiscordMessage)
	return ok && m.AuthorName == a.owner
}

func (a *fakeAdapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stops++
	return nil
}

func (a *fakeAdapter) sentMessages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.sent))
	copy(out, a.sent)
	return out
}

func (a *fakeAdapter) lastSent() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.sent) == 0 {
		return ""
	}
	return a.sent[len(a.sent)-1]
}

type cacheEntry struct {
	value   string
	expires time.Time
}

type fakeCache struct {
	mu      sync.Mutex
	name    string
	primary bool
	entries map[string]cacheEntry
	now     func() time.Time
	setups  int
	stops   int
	getErr  error
	setErr  error
}

func newFakeCache(primary bool) *fakeCache {
	return &fakeCache{
		name:    "fake",
		primary: primary,
		entries: map[string]cacheEntry{},
		now:     time.Now,
	}
}

func (c *fakeCache) Name() string                { return c.name }
func (c *fakeCache) Primary() bool               { return c.primary }
func (c *fakeCache) Setup(context.Context) error { c.mu.Lock(); defer c.mu.Unlock(); c.setups++; return nil }
func (c *fakeCache) Stop() error                 { c.mu.Lock(); defer c.mu.Unlock(); c.stops++; return nil }

func (c *fakeCache) Set(_ context.Context, key, value string, expiry time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	entry := cacheEntry{value: value}
	if expiry > 0 {
		entry.expires = c.now().Add(expiry)
	}
	c.entries[key] = entry
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expires.IsZero() && c.now().After(entry.expires) {
		delete(c.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

type fakeStore struct {
	mu       sync.Mutex
	commands    map[string]*store.Command
	settings    map[string]string
	closed      bool
	findErr     error
	settingsErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{commands: map[string]*store.Command{}, settings: map[string]string{}}
}

func (s *fakeStore) FindCommand(_ context.Context, name string) (*store.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	cmd, ok := s.commands[name]
	if !ok {
		return nil, nil
	}
	copied := *cmd
	return &copied, nil
}

func (s *fakeStore) Settings(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settingsErr != nil {
		return nil, s.settingsErr
	}
	out := make(map[string]string, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeSkill struct {
	SkillBase
	name    string
	reply   string
	err     error
	panics  bool
	mu      sync.Mutex
	handled []Activity
}

func newFakeSkill(name string, types ...ActivityType) *fakeSkill {
	return &fakeSkill{SkillBase: NewSkillBase(types...), name: name}
}

func (s *fakeSkill) Name() string { return s.name }

func (s *fakeSkill) Handle(_ context.Context, activity Activity) (string, error) {
	if s.panics {
		panic("boom")
	}
	s.mu.Lock()
	s.handled = append(s.handled, activity)
	s.mu.Unlock()
	return s.reply, s.err
}

func (s *fakeSkill) handledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handled)
}

type fakeCommand struct {
	name string
	opts CommandOptions
	err  error
	mu   sync.Mutex
	runs int
}

func (c *fakeCommand) Name() string            { return c.name }
func (c *fakeCommand) Options() CommandOptions { return c.opts }

func (c *fakeCommand) Run(context.Context, *Context, []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	return c.err
}

func (c *fakeCommand) runCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

type fakeHook struct {
	name   string
	mu     sync.Mutex
	starts int
	readys int
	stops  int
}

func (h *fakeHook) Name() string                  { return h.name }
func (h *fakeHook) OnStart(context.Context) error { h.mu.Lock(); defer h.mu.Unlock(); h.starts++; return nil }
func (h *fakeHook) OnReady(context.Context) error { h.mu.Lock(); defer h.mu.Unlock(); h.readys++; return nil }
func (h *fakeHook) OnStop() error                 { h.mu.Lock(); defer h.mu.Unlock(); h.stops++; return nil }

func testBot(opts Options) *Bot {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Store == nil {
		opts.Store = newFakeStore()
	}
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	if len(opts.Caches) == 0 {
		opts.Caches = []Cache{newFakeCache(true)}
	}
	return New(opts)
}

var errFake = errors.New("fake failure")
