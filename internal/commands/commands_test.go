package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/config"
	"github.com/stormix/stormbot/internal/store"
)

var errAdapterStopped = errors.New("adapter stopped")

type fakeAdapter struct {
	mu      sync.Mutex
	name    bot.Platform
	latency time.Duration
	sent    []string
	stopped bool
}

func (a *fakeAdapter) Name() bot.Platform           { return a.name }
func (a *fakeAdapter) Setup(context.Context) error  { return nil }
func (a *fakeAdapter) Listen(context.Context) error { return nil }
func (a *fakeAdapter) CreateContext(msg bot.Message) *bot.Context {
	return &bot.Context{TraceID: "trace", AtAuthor: "@author", AtOwner: "@owner", Adapter: a, Message: msg}
}
func (a *fakeAdapter) IsOwner(bot.Message) bool { return false }
func (a *fakeAdapter) Latency() time.Duration   { return a.latency }

func (a *fakeAdapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	return nil
}

// Send refuses delivery once the adapter is stopped, like a transport whose
// connection was torn down.
func (a *fakeAdapter) Send(_ context.Context, text string, _ *bot.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return errAdapterStopped
	}
	a.sent = append(a.sent, text)
	return nil
}

func (a *fakeAdapter) Message(_ context.Context, text string, _ *bot.Context) error {
	return a.Send(context.Background(), text, nil)
}

func (a *fakeAdapter) lastSent() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.sent) == 0 {
		return ""
	}
	return a.sent[len(a.sent)-1]
}

type fakeDatastore struct{}

func (fakeDatastore) FindCommand(context.Context, string) (*store.Command, error) { return nil, nil }
func (fakeDatastore) Settings(context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}
func (fakeDatastore) Close() error { return nil }

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func (c *fakeCache) Name() string                { return "fake" }
func (c *fakeCache) Primary() bool               { return true }
func (c *fakeCache) Setup(context.Context) error { return nil }
func (c *fakeCache) Stop() error                 { return nil }
func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]string{}
	}
	c.entries[key] = value
	return nil
}
func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok, nil
}

type fakeArtisanStore struct {
	mu       sync.Mutex
	commands map[string]*store.Command
	settings map[string]string
}

func newFakeArtisanStore() *fakeArtisanStore {
	return &fakeArtisanStore{commands: map[string]*store.Command{}, settings: map[string]string{}}
}

func (s *fakeArtisanStore) FindCommand(_ context.Context, name string) (*store.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd, ok := s.commands[name]
	if !ok {
		return nil, nil
	}
	copied := *cmd
	return &copied, nil
}

func (s *fakeArtisanStore) ListCommands(context.Context) ([]store.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Command
	for _, cmd := range s.commands {
		out = append(out, *cmd)
	}
	return out, nil
}

func (s *fakeArtisanStore) CreateCommand(_ context.Context, c store.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[c.Name] = &c
	return nil
}

func (s *fakeArtisanStore) UpdateCommand(_ context.Context, name, response string, typ store.CommandType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[name].Response = response
	s.commands[name].Type = typ
	return nil
}

func (s *fakeArtisanStore) SetCommandEnabled(_ context.Context, name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[name].Enabled = enabled
	return nil
}

func (s *fakeArtisanStore) DeleteCommand(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.commands, name)
	return nil
}

func (s *fakeArtisanStore) Settings(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for k, v := range s.settings {
		out[k] = v
	}
	return out, nil
}

func (s *fakeArtisanStore) FindSetting(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.settings[name]
	return value, ok, nil
}

func (s *fakeArtisanStore) SetSetting(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[name] = value
	return nil
}

func (s *fakeArtisanStore) DeleteSetting(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, name)
	return nil
}

func testBot(t *testing.T) *bot.Bot {
	t.Helper()
	b := bot.New(bot.Options{
		Config: config.Default(),
		Store:  fakeDatastore{},
		Caches: []bot.Cache{&fakeCache{}},
		Logger: slog.New(slog.DiscardHandler),
	})
	if err := b.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	return b
}

func listeningBot(t *testing.T) *bot.Bot {
	t.Helper()
	b := testBot(t)
	if err := b.Listen(context.Background()); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestPingTwitchReportsLatency(t *testing.T) {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "viewer", Timestamp: ts})

	ping := NewPing(nil).(*Ping)
	ping.now = func() time.Time { return ts.Add(42 * time.Millisecond) }

	if err := ping.Run(context.Background(), c, nil); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Pong! Took 42ms" {
		t.Fatalf("reply = %q", got)
	}
}

func TestPingDiscordUsesHeartbeat(t *testing.T) {
	adapter := &fakeAdapter{name: bot.PlatformDiscord, latency: 87 * time.Millisecond}
	c := adapter.CreateContext(bot.DiscordMessage{AuthorID: "1"})

	if err := NewPing(nil).Run(context.Background(), c, nil); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Pong! Took 87ms" {
		t.Fatalf("reply = %q", got)
	}
}

func TestPingKickIsPlain(t *testing.T) {
	adapter := &fakeAdapter{name: bot.PlatformKick}
	c := adapter.CreateContext(bot.KickMessage{SenderUsername: "viewer"})

	if err := NewPing(nil).Run(context.Background(), c, nil); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Pong!" {
		t.Fatalf("reply = %q", got)
	}
}

func TestPrefixCommand(t *testing.T) {
	b := testBot(t)
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "viewer"})

	if err := NewPrefix(b).Run(context.Background(), c, nil); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "My prefix is `^`" {
		t.Fatalf("reply = %q", got)
	}
}

func TestVersionCommandOptions(t *testing.T) {
	v := NewVersion(nil)
	opts := v.Options()
	if len(opts.Aliases) != 1 || opts.Aliases[0] != "v" {
		t.Errorf("aliases = %v", opts.Aliases)
	}
	if opts.Cooldown != 10 {
		t.Errorf("cooldown = %d", opts.Cooldown)
	}

	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "viewer"})
	if err := v.Run(context.Background(), c, nil); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); !strings.Contains(got, "I am currently running version") {
		t.Fatalf("reply = %q", got)
	}
}

// reloadingBot wires a Twitch fake through the adapter factory so a reload
// constructs a fresh instance; every instance is recorded in order.
func reloadingBot(t *testing.T) (*bot.Bot, *[]*fakeAdapter) {
	t.Helper()
	var adapters []*fakeAdapter
	b := bot.New(bot.Options{
		Config: config.Default(),
		Store:  fakeDatastore{},
		Caches: []bot.Cache{&fakeCache{}},
		AdapterFactories: []bot.AdapterFactory{func(*bot.Bot) bot.Adapter {
			a := &fakeAdapter{name: bot.PlatformTwitch}
			adapters = append(adapters, a)
			return a
		}},
		Logger: slog.New(slog.DiscardHandler),
	})
	if err := b.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.Listen(context.Background()); err != nil {
		t.Fatal(err)
	}
	return b, &adapters
}

func TestReloadRepliesThroughFreshAdapter(t *testing.T) {
	b, adapters := reloadingBot(t)
	first := (*adapters)[0]
	c := first.CreateContext(bot.TwitchMessage{Username: "owner"})

	if err := NewReload(b).Run(context.Background(), c, nil); err != nil {
		t.Fatal(err)
	}
	if len(*adapters) != 2 {
		t.Fatalf("adapter factory invoked %d times, want 2", len(*adapters))
	}
	if !first.stopped {
		t.Error("old adapter still live after reload")
	}
	// The triggering context points at the stopped instance, which refuses
	// sends; the confirmation must arrive on the replacement.
	if got := first.lastSent(); got != "" {
		t.Errorf("old adapter received %q", got)
	}
	if got := (*adapters)[1].lastSent(); got != "Reloaded config" {
		t.Fatalf("reply = %q", got)
	}
}

func TestArtisanConfigSetRepliesThroughFreshAdapter(t *testing.T) {
	b, adapters := reloadingBot(t)
	st := newFakeArtisanStore()
	first := (*adapters)[0]
	c := first.CreateContext(bot.TwitchMessage{Username: "owner"})

	err := NewArtisan(b, st).Run(context.Background(), c, []string{"config", "set", "prefix", "!"})
	if err != nil {
		t.Fatal(err)
	}
	if len(*adapters) != 2 {
		t.Fatalf("adapter factory invoked %d times, want 2", len(*adapters))
	}
	if got := (*adapters)[1].lastSent(); got != "Setting prefix created." {
		t.Fatalf("reply = %q", got)
	}
}

func TestReloadCommand(t *testing.T) {
	b := listeningBot(t)
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "owner"})

	if err := NewReload(b).Run(context.Background(), c, nil); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Reloaded config" {
		t.Fatalf("reply = %q", got)
	}
}

type echoSkill struct {
	bot.SkillBase
}

func (echoSkill) Name() string { return "echo" }
func (s echoSkill) Handle(_ context.Context, activity bot.Activity) (string, error) {
	payload := activity.Payload.(bot.ConversationPayload)
	return "echo: " + payload.Text, nil
}

func TestWhisperRoutesThroughBrain(t *testing.T) {
	b := testBot(t)
	b.Brain().Register(echoSkill{SkillBase: bot.NewSkillBase(bot.ActivityConversation)})
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "owner"})

	if err := NewWhisper(b).Run(context.Background(), c, []string{"hello", "bot"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "@author echo: hello bot" {
		t.Fatalf("reply = %q", got)
	}
}

func TestWhisperKickHasNoPipeline(t *testing.T) {
	b := testBot(t)
	adapter := &fakeAdapter{name: bot.PlatformKick}
	c := adapter.CreateContext(bot.KickMessage{SenderUsername: "owner"})

	if err := NewWhisper(b).Run(context.Background(), c, []string{"hello"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "@author Oopsie." {
		t.Fatalf("reply = %q", got)
	}
}

func TestFollowNeedsMention(t *testing.T) {
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "owner"})

	if err := NewFollow(nil).Run(context.Background(), c, []string{"nobody"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "You need to provide a username to follow" {
		t.Fatalf("reply = %q", got)
	}

	if err := NewFollow(nil).Run(context.Background(), c, []string{"@someone"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Gonna follow someone" {
		t.Fatalf("reply = %q", got)
	}
}

func TestArtisanRequiresSubcommand(t *testing.T) {
	b := testBot(t)
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "owner"})

	artisan := NewArtisan(b, newFakeArtisanStore())
	if err := artisan.Run(context.Background(), c, nil); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Please specify a command to run" {
		t.Fatalf("reply = %q", got)
	}

	if err := artisan.Run(context.Background(), c, []string{"bogus"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Unknown artisan command" {
		t.Fatalf("reply = %q", got)
	}

	if err := artisan.Run(context.Background(), c, []string{"help"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Available artisan commands: commands, config" {
		t.Fatalf("reply = %q", got)
	}
}

func TestArtisanCommandsAddAndList(t *testing.T) {
	b := testBot(t)
	st := newFakeArtisanStore()
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "owner"})
	artisan := NewArtisan(b, st)

	err := artisan.Run(context.Background(), c, []string{"commands", "add", "discord", `"join my server"`, "30"})
	if err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Added command `^discord`" {
		t.Fatalf("reply = %q", got)
	}

	stored := st.commands["discord"]
	if stored == nil {
		t.Fatal("command not stored")
	}
	if stored.Response != "join my server" || stored.Cooldown != 30 || stored.Type != store.CommandStatic || !stored.Enabled {
		t.Fatalf("stored = %+v", stored)
	}

	if err := artisan.Run(context.Background(), c, []string{"commands", "list"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); !strings.Contains(got, "`^discord`: join my server (enabled)") {
		t.Fatalf("list = %q", got)
	}
}

func TestArtisanCommandsAddDuplicate(t *testing.T) {
	b := testBot(t)
	st := newFakeArtisanStore()
	st.commands["dup"] = &store.Command{Name: "dup", Response: "x", Type: store.CommandStatic, Enabled: true}
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "owner"})

	err := NewArtisan(b, st).Run(context.Background(), c, []string{"commands", "add", "dup", "y"})
	if err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); !strings.Contains(got, "already exists") {
		t.Fatalf("reply = %q", got)
	}
}

func TestArtisanCommandsCodeFenceIsDynamic(t *testing.T) {
	b := testBot(t)
	st := newFakeArtisanStore()
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "owner"})

	err := NewArtisan(b, st).Run(context.Background(), c, []string{"commands", "add", "calc", "```return", "1+1```"})
	if err != nil {
		t.Fatal(err)
	}
	stored := st.commands["calc"]
	if stored == nil || stored.Type != store.CommandDynamic {
		t.Fatalf("stored = %+v", stored)
	}
	if stored.Response != "return 1+1" {
		t.Errorf("response = %q", stored.Response)
	}
}

func TestArtisanCommandsEnableDisableRemove(t *testing.T) {
	b := testBot(t)
	st := newFakeArtisanStore()
	st.commands["clip"] = &store.Command{Name: "clip", Response: "x", Type: store.CommandStatic, Enabled: true}
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "owner"})
	artisan := NewArtisan(b, st)

	if err := artisan.Run(context.Background(), c, []string{"commands", "disable", "clip"}); err != nil {
		t.Fatal(err)
	}
	if st.commands["clip"].Enabled {
		t.Error("command still enabled")
	}
	if got := adapter.lastSent(); !strings.Contains(got, "has been disabled") {
		t.Fatalf("reply = %q", got)
	}

	if err := artisan.Run(context.Background(), c, []string{"commands", "enable", "clip"}); err != nil {
		t.Fatal(err)
	}
	if !st.commands["clip"].Enabled {
		t.Error("command still disabled")
	}

	if err := artisan.Run(context.Background(), c, []string{"commands", "remove", "clip"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := st.commands["clip"]; ok {
		t.Error("command not removed")
	}

	if err := artisan.Run(context.Background(), c, []string{"commands", "remove", "clip"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); !strings.Contains(got, "does not exist") {
		t.Fatalf("reply = %q", got)
	}
}

func TestArtisanConfigSetAndRemove(t *testing.T) {
	b := listeningBot(t)
	st := newFakeArtisanStore()
	adapter := &fakeAdapter{name: bot.PlatformTwitch}
	c := adapter.CreateContext(bot.TwitchMessage{Username: "owner"})
	artisan := NewArtisan(b, st)

	if err := artisan.Run(context.Background(), c, []string{"config", "set", "prefix", "!"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Setting prefix created." {
		t.Fatalf("reply = %q", got)
	}
	if st.settings["prefix"] != "!" {
		t.Fatalf("settings = %v", st.settings)
	}

	if err := artisan.Run(context.Background(), c, []string{"config", "set", "prefix", "$"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Setting prefix updated." {
		t.Fatalf("reply = %q", got)
	}

	if err := artisan.Run(context.Background(), c, []string{"config", "remove", "prefix"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Setting prefix removed." {
		t.Fatalf("reply = %q", got)
	}
	if _, ok := st.settings["prefix"]; ok {
		t.Error("setting not removed")
	}

	if err := artisan.Run(context.Background(), c, []string{"config", "remove", "prefix"}); err != nil {
		t.Fatal(err)
	}
	if got := adapter.lastSent(); got != "Setting prefix does not exist." {
		t.Fatalf("reply = %q", got)
	}
}

func TestArtisanConfigListPerPlatform(t *testing.T) {
	b := testBot(t)
	st := newFakeArtisanStore()
	st.settings["prefix"] = "!"
	artisan := NewArtisan(b, st)

	discord := &fakeAdapter{name: bot.PlatformDiscord}
	c := discord.CreateContext(bot.DiscordMessage{AuthorID: "1"})
	if err := artisan.Run(context.Background(), c, []string{"config", "list"}); err != nil {
		t.Fatal(err)
	}
	if got := discord.lastSent(); !strings.Contains(got, "```json") {
		t.Fatalf("discord list = %q", got)
	}

	twitch := &fakeAdapter{name: bot.PlatformTwitch}
	c = twitch.CreateContext(bot.TwitchMessage{Username: "owner"})
	if err := artisan.Run(context.Background(), c, []string{"config", "list"}); err != nil {
		t.Fatal(err)
	}
	if got := twitch.lastSent(); got != "prefix: !" {
		t.Fatalf("twitch list = %q", got)
	}
}

func TestParseResponseSpec(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		command  string
		response string
		typ      store.CommandType
		cooldown int
		wantErr  bool
	}{
		{
			name:     "bare word",
			args:     []string{"hi", "hello"},
			command:  "hi",
			response: "hello",
			typ:      store.CommandStatic,
		},
		{
			name:     "double quoted with cooldown",
			args:     []string{"discord", `"join`, `my`, `server"`, "30"},
			command:  "discord",
			response: "join my server",
			typ:      store.CommandStatic,
			cooldown: 30,
		},
		{
			name:     "single quoted",
			args:     []string{"hi", "'hello", "there'"},
			command:  "hi",
			response: "hello there",
			typ:      store.CommandStatic,
		},
		{
			name:     "code fence is dynamic",
			args:     []string{"calc", "```return", "1+1```"},
			command:  "calc",
			response: "return 1+1",
			typ:      store.CommandDynamic,
		},
		{
			name:    "missing closing quote",
			args:    []string{"hi", `"never`, "closed"},
			wantErr: true,
		},
		{
			name:     "bare word with cooldown",
			args:     []string{"hi", "hello", "15"},
			command:  "hi",
			response: "hello",
			typ:      store.CommandStatic,
			cooldown: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := parseResponseSpec(tt.args)
			if tt.wantErr {
				if err != ErrMissingClosingQuote {
					t.Fatalf("err = %v, want ErrMissingClosingQuote", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if spec.Command != tt.command || spec.Response != tt.response || spec.Type != tt.typ || spec.Cooldown != tt.cooldown {
				t.Fatalf("spec = %+v", spec)
			}
		})
	}
}
