// Package cli wires the bot together and exposes it as a command-line tool.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stormix/stormbot/internal/version"
)

var logo = "\n" +
	"      _                       _           _\n" +
	"  ___| |_ ___  _ __ _ __ ___ | |__   ___ | |_\n" +
	" / __| __/ _ \\| '__| '_ ` _ \\| '_ \\ / _ \\| __|\n" +
	" \\__ \\ || (_) | |  | | | | | | |_) | (_) | |_\n" +
	" |___/\\__\\___/|_|  |_| |_| |_|_.__/ \\___/ \\__|\n"

var rootCmd = &cobra.Command{
	Use:   "stormbot",
	Short: "stormbot - multi-platform chat bot",
	Long:  color.CyanString(logo) + "\nA chat bot for Discord, Twitch and Kick with pluggable skills.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("stormbot Version")
		fmt.Printf("Version: %s\n", version.Version)
	},
}
