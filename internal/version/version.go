// Package version holds the build version of the bot.
package version

// Version can be overridden at build time via:
// go build -ldflags "-X github.com/stormix/stormbot/internal/version.Version=1.2.3"
var Version = "0.4.0"
