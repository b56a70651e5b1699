package main

import (
	"flag"
	"log/slog"
	"os"

	"telegram-points-bot/bot"
	"telegram-points-bot/config"
	"telegram-points-bot/storage"
)

func main() {
	// Parse command-line flags
	verbose := flag.Bool("v", false, "Enable verbose logging (LevelInfo)")
	veryVerbose := flag.Bool("vv", false, "Enable very verbose logging (LevelDebug)")
	flag.Parse()

	// Set up logging
	setLogLevel(*verbose, *veryVerbose)

	slog.Debug("main: Command-line flags parsed", "verbose", *verbose, "very_verbose", *veryVerbose)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("main: Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	slog.Debug("main: Initializing storage", "db_path", cfg.DatabasePath)
	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("main: Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	slog.Debug("main: Storage initialized successfully")

	// Initialize bot
	slog.Debug("main: Initializing bot")
	pointsBot, err := bot.New(cfg.Token, cfg.OwnerID, store)
	if err != nil {
		slog.Error("main: Failed to initialize bot", "error", err)
		os.Exit(1)
	}

	// Start bot (blocks until the update handler stops)
	slog.Info("main: Starting bot...")
	if err := pointsBot.Start(); err != nil {
		slog.Error("main: Failed to start bot", "error", err)
		os.Exit(1)
	}
}

// setLogLevel configures the logging level based on the provided flags
func setLogLevel(verbose, veryVerbose bool) {
	// Determine logging level based on flags
	logLevel := slog.LevelWarn // Default level
	if veryVerbose {
		logLevel = slog.LevelDebug
	} else if verbose {
		logLevel = slog.LevelInfo
	}

	// Configure structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Debug("main: Log level set to", "level", logLevel.String())
}
