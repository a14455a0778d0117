// Command twipsybot is the entry point for the Misskey streaming bot.
// It loads the bot configuration, connects to the instance's streaming
// endpoint, and manages graceful shutdown via OS signals.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/oreeke/twipsybot/internal/bot"
	"github.com/oreeke/twipsybot/internal/config"
	"github.com/oreeke/twipsybot/internal/constants"
	"github.com/oreeke/twipsybot/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the bot configuration file")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides LOG_LEVEL env)")
	logDir := flag.String("log-dir", "", "Directory for log files (empty disables file logging)")
	noColor := flag.Bool("no-color", false, "Disable colored output (overrides TTY detection)")
	flag.Parse()

	// Secrets may live in a local .env file; absence is fine.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *logLevel != "" {
		level = logger.ParseLevel(*logLevel)
	} else if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		level = logger.ParseLevel(envLevel)
	}

	colored := !*noColor && term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""

	log, err := logger.Setup(logger.Config{
		Level:   level,
		Colored: colored,
		LogDir:  *logDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		log.Error("Invalid config", "name", cfg.Name, "error", err)
		os.Exit(1)
	}
	if !cfg.IsEnabled() {
		log.Info("Bot is disabled in config, exiting", "name", cfg.Name)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("Received shutdown signal", "signal", sig.String())
		cancel()

		time.AfterFunc(constants.DefaultGracefulShutdownTimeout, func() {
			log.Error("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		})
	}()

	b := bot.New(cfg, log.WithName(cfg.Name))
	if err := b.Run(ctx); err != nil {
		log.Error("Bot exited with error", "name", cfg.Name, "error", err)
		os.Exit(1)
	}
}
