package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stormix/stormbot/internal/adapters"
	"github.com/stormix/stormbot/internal/bot"
	"github.com/stormix/stormbot/internal/cache"
	"github.com/stormix/stormbot/internal/commands"
	"github.com/stormix/stormbot/internal/config"
	"github.com/stormix/stormbot/internal/hooks"
	"github.com/stormix/stormbot/internal/overlay"
	"github.com/stormix/stormbot/internal/providers"
	"github.com/stormix/stormbot/internal/relay"
	"github.com/stormix/stormbot/internal/skills"
	"github.com/stormix/stormbot/internal/store"
	"github.com/stormix/stormbot/internal/version"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot",
	Run:   runBot,
}

func runBot(cmd *cobra.Command, args []string) {
	printHeader("stormbot " + version.Version)

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg)

	st, err := store.Open(cfg.StoragePath)
	if err != nil {
		fmt.Printf("Datastore error: %v\n", err)
		os.Exit(1)
	}

	// The overlay publisher and relay producer are shared between the skills
	// that use them and the lifecycle hooks that connect and close them.
	var pub *overlay.Publisher
	if cfg.Redis.Enabled {
		pub = overlay.NewPublisher(cfg.Redis, log)
	}
	var producer *relay.Producer
	if cfg.Relay.Enabled {
		producer = relay.NewProducer(cfg.Relay, log)
	}

	b := bot.New(bot.Options{
		Config:           cfg,
		Store:            st,
		Caches:           buildCaches(cfg),
		Skills:           buildSkills(cfg, st, pub, producer, log),
		AdapterFactories: adapterFactories(st),
		CommandFactories: commandFactories(st),
		HookFactories:    hookFactories(pub, producer),
		Logger:           log,
	})

	ctx := context.Background()
	if err := b.Setup(ctx); err != nil {
		fmt.Printf("Setup error: %v\n", err)
		os.Exit(1)
	}
	if err := b.Listen(ctx); err != nil {
		fmt.Printf("Listen error: %v\n", err)
		os.Exit(1)
	}
	log.Info("bot is listening", "version", version.Version, "prefix", b.Prefix())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	fmt.Println("Bot running. Press Ctrl+C to stop.")
	<-sigChan

	fmt.Println("Shutting down...")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := b.Shutdown(stopCtx); err != nil {
		log.Error("shutdown finished with errors", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Environment == "development" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// buildCaches always registers the in-memory cache and promotes Redis to
// primary when it is enabled.
func buildCaches(cfg *config.Config) []bot.Cache {
	caches := []bot.Cache{cache.NewMemory(cfg.Name, !cfg.Redis.Enabled)}
	if cfg.Redis.Enabled {
		caches = append(caches, cache.NewRedis(cfg.Name, true, cfg.Redis))
	}
	return caches
}

// buildSkills assembles the skill set from whatever integrations the config
// provides credentials for. A skill whose backing service is unconfigured is
// simply not registered.
func buildSkills(cfg *config.Config, st *store.Store, pub *overlay.Publisher, producer *relay.Producer, log *slog.Logger) []bot.Skill {
	var list []bot.Skill

	if cfg.Providers.HuggingFace.Model != "" {
		gen := providers.NewHuggingFace(cfg.Providers.HuggingFace, log)
		list = append(list, skills.NewConversation(gen, log))
	}
	if cfg.Providers.Spotify.ClientID != "" {
		spotify := providers.NewSpotify(cfg.Providers.Spotify, st, log)
		list = append(list, skills.NewMusic(spotify, log))
	}
	if cfg.Adapters.Twitch.ClientID != "" {
		// Moderation actions run as the broadcaster, not the bot account.
		mod := providers.NewTwitch(cfg.Adapters.Twitch, st, store.ServiceTwitchBroadcaster, log)
		list = append(list,
			skills.NewWarden(mod, log),
			skills.NewRoulette(mod, log),
			skills.NewHitman(mod, cfg.Name, log),
		)
	}
	if pub != nil {
		list = append(list, skills.NewReader(pub, log), skills.NewShake(pub, log))
	}
	if producer != nil {
		list = append(list, skills.NewRelay(producer, log))
	}
	list = append(list, skills.NewStream(log))
	return list
}

func adapterFactories(st *store.Store) []bot.AdapterFactory {
	return []bot.AdapterFactory{
		func(b *bot.Bot) bot.Adapter { return adapters.NewDiscord(b) },
		func(b *bot.Bot) bot.Adapter { return adapters.NewTwitch(b, st) },
		func(b *bot.Bot) bot.Adapter { return adapters.NewKick(b) },
	}
}

func commandFactories(st *store.Store) []bot.CommandFactory {
	return []bot.CommandFactory{
		commands.NewPing,
		commands.NewPrefix,
		commands.NewVersion,
		commands.NewReload,
		commands.NewWhisper,
		commands.NewFollow,
		func(b *bot.Bot) bot.Command { return commands.NewArtisan(b, st) },
	}
}

func hookFactories(pub *overlay.Publisher, producer *relay.Producer) []bot.HookFactory {
	factories := []bot.HookFactory{
		func(b *bot.Bot) bot.Hook { return hooks.NewPresence(b, "v"+version.Version) },
	}
	if pub != nil {
		factories = append(factories, func(*bot.Bot) bot.Hook { return hooks.NewOverlay(pub) })
	}
	if producer != nil {
		factories = append(factories, func(*bot.Bot) bot.Hook { return hooks.NewRelay(producer) })
	}
	return factories
}
