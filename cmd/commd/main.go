package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/xhrcomm/internal/config"
	"github.com/danmuck/xhrcomm/internal/logging"
	"github.com/danmuck/xhrcomm/internal/server"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime()
	configPath := flag.String("config", "cmd/commd/config.toml", "server config path")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load commd config")
	}

	srv := server.New(cfg)
	registerHandlers(srv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("name", cfg.Name).Str("addr", cfg.Addr).Str("path", cfg.Path).Msg("commd started")
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("commd stopped")
	}
}

// loadConfig falls back to defaults when the file does not exist.
func loadConfig(path string) (server.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", path).Msg("no config file, using defaults")
		return server.DefaultConfig(), nil
	}
	fileCfg, err := config.LoadServerConfig(path)
	if err != nil {
		return server.Config{}, err
	}
	log.Info().Str("path", path).Msg("loaded commd config")
	return fileCfg.Server()
}
