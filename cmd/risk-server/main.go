package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/coastal-risk/internal/config"
	"github.com/mohammed-shakir/coastal-risk/internal/logger"
	"github.com/mohammed-shakir/coastal-risk/internal/server"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// optional local .env; ignored when absent
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "risk-server",
	}, os.Stdout)

	log.Info().
		Str("addr", cfg.Addr).
		Str("version", Version).
		Str("cache_driver", cfg.CacheDriver).
		Bool("invalidation", cfg.Invalidation.Enabled).
		Msg("starting risk server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited")
		return 1
	}
	return 0
}
