// Command sportsmeta generates media-server metadata YAML for sports seasons
// from TheSportsDB.
//
// Usage:
//
//	sportsmeta generate formula1 --season 2025 --asset-url-base https://raw.example.com/posters/main
//	sportsmeta generate moto3 --season 2025 --skip-asset-download
//	sportsmeta sports
//	sportsmeta slots formula1
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	logLevel = new(slog.LevelVar)
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sportsmeta",
		Short:        "Sports metadata generator for TheSportsDB",
		SilenceUsage: true,
	}

	root.AddCommand(generateCmd())
	root.AddCommand(sportsCmd())
	root.AddCommand(slotsCmd())
	return root
}
