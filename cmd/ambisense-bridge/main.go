// Ambisense-bridge is a polling bridge for AmbiSense LED controllers.
//
// It discovers the device on the LAN, polls its distance sensor and
// lighting settings into a reconciled snapshot, and applies setting
// updates over the device's HTTP API. The serve command runs the bridge
// as a daemon with optional MQTT republishing (Home Assistant discovery
// included) and a local HTTP/websocket API.
//
// Usage:
//
//	ambisense-bridge [command] [flags]
//
// See 'ambisense-bridge --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/techposts/ambisense-bridge/internal/logging"
	"github.com/techposts/ambisense-bridge/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ambisense-bridge",
	Short: "AmbiSense LED Controller Bridge",
	Long: `A standalone bridge for AmbiSense radar-controlled LED systems.

Polls the device's distance sensor and lighting settings into a
reconciled snapshot, applies setting updates, and republishes state
over MQTT or a local HTTP API for home-automation consumers.`,
	Version: version.Version,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ambisense-bridge %s (commit: %s)\n", version.Version, version.Commit)
	},
}
