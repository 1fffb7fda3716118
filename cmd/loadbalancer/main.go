// Package main provides the load balancer binary: a TCP forwarder that
// spreads game connections round-robin across backends.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/openarcade/tugofwar/internal/config"
	"github.com/openarcade/tugofwar/internal/observability"
	"github.com/openarcade/tugofwar/internal/proxy"
	"github.com/openarcade/tugofwar/internal/server"
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

	logger.Info("starting load balancer",
		zap.String("addr", cfg.Balancer.Addr()),
		zap.Strings("backends", cfg.Balancer.Backends),
	)

	balancer := proxy.NewBalancer(cfg.Balancer, logger)

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("balancer", balancer)

	logger.Info("load balancer initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
