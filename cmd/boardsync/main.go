package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/codefionn/boardsync/internal/client"
	"github.com/codefionn/boardsync/internal/config"
	"github.com/codefionn/boardsync/internal/logger"
	"github.com/codefionn/boardsync/internal/transport"
	"github.com/codefionn/boardsync/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		backendFlag  = flag.String("backend", "", "backend base URL (overrides config)")
		nickFlag     = flag.String("nick", "", "display name (overrides config)")
		roomFlag     = flag.String("room", "", "join a chat room instead of the Q&A board")
		logLevelFlag = flag.String("log-level", "", "log level: debug, info, warn, error, none")
		configFlag   = flag.String("config", "", "config file path")
	)
	flag.Parse()

	// A local .env is convenient in development; absence is not an error.
	_ = godotenv.Load()

	configPath := *configFlag
	if configPath == "" {
		configPath = config.Path()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if *backendFlag != "" {
		cfg.BackendURL = *backendFlag
	}
	if *nickFlag != "" {
		cfg.Nickname = *nickFlag
	}
	if *roomFlag != "" {
		cfg.Room = *roomFlag
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return err
	}
	defer logger.Global().Close()
	logger.Info("boardsync starting, backend %s", cfg.BackendURL)

	session, err := client.New(client.Options{
		BackendURL: cfg.BackendURL,
		Nickname:   cfg.Nickname,
		Room:       cfg.Room,
		Reconnect: transport.Policy{
			BaseDelay:   time.Duration(cfg.Reconnect.BaseDelayMS) * time.Millisecond,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
		},
		TypingDecay:    time.Duration(cfg.TypingDecayMS) * time.Millisecond,
		TypingThrottle: time.Duration(cfg.TypingThrottleMS) * time.Millisecond,
	})
	if err != nil {
		return err
	}
	defer session.Stop()

	// Log-level changes in the config file take effect without a restart.
	stopWatch, err := config.Watch(configPath, func(updated *config.Config) {
		logger.Global().SetLevel(logger.ParseLevel(updated.LogLevel))
		logger.Info("config reloaded")
	})
	if err != nil {
		logger.Warn("config watch unavailable: %v", err)
	} else {
		defer stopWatch()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := session.Start(ctx); err != nil {
		return err
	}
	return tui.Run(session)
}
