package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pantry-tools/cubscrape/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cubscrape",
	Short: "Extracts your Cub order history into a local SQLite database.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(cfg.Log)
	},
}

func main() {
	// Credentials usually live in a .env next to the binary; absence is
	// fine when the environment is already populated.
	if err := godotenv.Load(); err == nil {
		slog.Debug(".env loaded")
	}
	cfg = config.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig.
func initLogger(logCfg config.LogConfig) {
	var level slog.Level
	switch logCfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if logCfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
