// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	relay_server "github.com/rapidaai/intake-relay/api/relay-api/server"
	"github.com/rapidaai/intake-relay/config"
	"github.com/rapidaai/intake-relay/pkg/commons"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("unable to initialize config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("invalid application config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Level(cfg.LogLevel),
		commons.Path(cfg.LogPath),
	)
	if err != nil {
		log.Fatalf("unable to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := relay_server.New(cfg, logger).Run(ctx); err != nil {
		logger.Errorf("relay stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Infof("%s stopped", cfg.Name)
}
