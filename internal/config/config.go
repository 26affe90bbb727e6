// Package config provides configuration types and loading for stormbot.
package config

// Config is the root configuration struct.
// File values are overlaid first by environment variables and then by the
// settings table in the datastore (see ApplyOverrides).
type Config struct {
	Name        string `json:"name" envconfig:"BOT_NAME"`
	Prefix      string `json:"prefix" envconfig:"BOT_PREFIX"`
	Environment string `json:"environment" envconfig:"BOT_ENV"`
	StoragePath string `json:"storagePath" envconfig:"STORAGE_PATH"`

	Adapters  AdaptersConfig  `json:"adapters"`
	Redis     RedisConfig     `json:"redis"`
	Relay     RelayConfig     `json:"relay"`
	Providers ProvidersConfig `json:"providers"`
}

// AdaptersConfig contains all chat transport configurations.
type AdaptersConfig struct {
	Discord DiscordConfig `json:"discord"`
	Twitch  TwitchConfig  `json:"twitch"`
	Kick    KickConfig    `json:"kick"`
}

// DiscordConfig configures the Discord adapter.
type DiscordConfig struct {
	Enabled bool   `json:"enabled" envconfig:"DISCORD_ENABLED"`
	Token   string `json:"token" envconfig:"DISCORD_TOKEN"`
	GuildID string `json:"guildId" envconfig:"DISCORD_GUILD_ID"`
	OwnerID string `json:"ownerId" envconfig:"DISCORD_OWNER_ID"`
}

// TwitchConfig configures the Twitch adapter and Helix access.
type TwitchConfig struct {
	Enabled      bool   `json:"enabled" envconfig:"TWITCH_ENABLED"`
	Username     string `json:"username" envconfig:"TWITCH_USERNAME"`
	Channel      string `json:"channel" envconfig:"TWITCH_CHANNEL"`
	ClientID     string `json:"clientId" envconfig:"TWITCH_CLIENT_ID"`
	ClientSecret string `json:"clientSecret" envconfig:"TWITCH_CLIENT_SECRET"`

	// RewardMapping maps a channel-points reward ID to an activity type name.
	// Redemptions of unmapped rewards are ignored.
	RewardMapping map[string]string `json:"rewardMapping"`
}

// KickConfig configures the Kick adapter.
type KickConfig struct {
	Enabled  bool   `json:"enabled" envconfig:"KICK_ENABLED"`
	Username string `json:"username" envconfig:"KICK_USERNAME"`
	Channel  string `json:"channel" envconfig:"KICK_CHANNEL"`
	Token    string `json:"token" envconfig:"KICK_TOKEN"`
	Cookies  string `json:"cookies" envconfig:"KICK_COOKIES"`
}

// RedisConfig configures the cooldown cache and the overlay pub/sub.
type RedisConfig struct {
	Enabled        bool   `json:"enabled" envconfig:"REDIS_ENABLED"`
	Addr           string `json:"addr" envconfig:"REDIS_ADDR"`
	Password       string `json:"password" envconfig:"REDIS_PASSWORD"`
	DB             int    `json:"db" envconfig:"REDIS_DB"`
	OverlayChannel string `json:"overlayChannel" envconfig:"OVERLAY_CHANNEL"`
}

// RelayConfig configures the Kafka chat relay.
type RelayConfig struct {
	Enabled bool   `json:"enabled" envconfig:"RELAY_ENABLED"`
	Brokers string `json:"brokers" envconfig:"RELAY_BROKERS"`
	Topic   string `json:"topic" envconfig:"RELAY_TOPIC"`
}

// ProvidersConfig contains external API provider configurations.
type ProvidersConfig struct {
	HuggingFace HuggingFaceConfig `json:"huggingface"`
	Spotify     SpotifyConfig     `json:"spotify"`
}

// HuggingFaceConfig configures the conversational inference provider.
type HuggingFaceConfig struct {
	Model  string `json:"model" envconfig:"HUGGING_MODEL"`
	APIKey string `json:"apiKey" envconfig:"HUGGING_API_KEY"`
}

// SpotifyConfig configures the Spotify provider.
type SpotifyConfig struct {
	ClientID     string `json:"clientId" envconfig:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `json:"clientSecret" envconfig:"SPOTIFY_CLIENT_SECRET"`
}

// Default returns a config populated with defaults.
func Default() *Config {
	return &Config{
		Name:        "stormbot",
		Prefix:      "^",
		Environment: "development",
		StoragePath: "stormbot.db",
		Redis: RedisConfig{
			Addr:           "localhost:6379",
			OverlayChannel: "readChat",
		},
		Relay: RelayConfig{
			Brokers: "localhost:9092",
			Topic:   "chat-relay",
		},
	}
}
