// Package main provides the game server binary: the TCP backend hosting
// tug-of-war rooms plus the HTTP status surface.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/openarcade/tugofwar/internal/config"
	"github.com/openarcade/tugofwar/internal/gameserver"
	"github.com/openarcade/tugofwar/internal/observability"
	"github.com/openarcade/tugofwar/internal/server"
	"github.com/openarcade/tugofwar/internal/status"
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

	logger.Info("starting game server",
		zap.String("addr", cfg.Game.Addr()),
		zap.Int("round_seconds", cfg.Game.RoundSeconds),
		zap.Int("bar_limit", cfg.Game.BarLimit),
	)

	rooms := gameserver.NewRoomManager(cfg.Game, logger)
	handler := gameserver.NewHandler(rooms, logger)
	acceptor := transport.NewAcceptor(transport.ListenerConfig{
		Addr:         cfg.Game.Addr(),
		ReadTimeout:  cfg.Game.ReadTimeout,
		WriteTimeout: cfg.Game.WriteTimeout,
	}, handler, logger)

	statusServer := status.NewServer(cfg.HTTP, rooms, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("game-acceptor", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})
	lifecycle.Add("status-http", statusServer)
	lifecycle.Add("rooms", &server.FuncService{
		StartFn: func() error {
			// Rooms run their own goroutines; this service only ties their
			// teardown into the shutdown order.
			select {}
		},
		StopFn: rooms.Close,
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Game.Addr()),
		zap.String("http_addr", cfg.HTTP.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
