package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/artofey/livecoding/internal/ui"
	"github.com/artofey/livecoding/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "livecoding",
	Short:   "Collaborative editing sessions over a WebRTC mesh",
	Long: `Livecoding connects editors into a shared session: every participant in a
room holds a direct data channel to every other participant, and document
content and cursor positions flow peer to peer. The server only brokers the
introductions.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func main() {
	Execute()
}
