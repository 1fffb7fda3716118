// Package main provides the lobby binary: the matchmaking tier that hands
// arriving players a room on one of the game backends.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/openarcade/tugofwar/internal/config"
	"github.com/openarcade/tugofwar/internal/lobby"
	"github.com/openarcade/tugofwar/internal/observability"
	"github.com/openarcade/tugofwar/internal/server"
	"github.com/openarcade/tugofwar/internal/transport"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting lobby",
		zap.String("addr", cfg.Lobby.Addr()),
		zap.Strings("backends", cfg.Lobby.Backends),
		zap.Int("max_players", cfg.Lobby.MaxPlayers),
	)

	dir, err := lobby.NewDirectory(cfg.Lobby, logger)
	if err != nil {
		logger.Fatal("building room directory", zap.Error(err))
	}

	handler := lobby.NewHandler(dir, logger)
	acceptor := transport.NewAcceptor(transport.ListenerConfig{
		Addr:         cfg.Lobby.Addr(),
		WriteTimeout: cfg.Lobby.WriteTimeout,
	}, handler, logger)

	sweeper := lobby.NewSweeper(dir, cfg.Lobby.SweepInterval, logger)
	statusLog := lobby.NewStatusLogger(dir, cfg.Lobby.StatusInterval, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("lobby-acceptor", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})
	lifecycle.Add("room-sweeper", sweeper)
	lifecycle.Add("status-logger", statusLog)

	logger.Info("lobby initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Lobby.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
