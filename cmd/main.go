// Package main is the entry point for the patchwork-service application.
//
// @title           Patchwork Service API
// @version         1.0.0
// @description     Renders album-cover grids ("patchworks") from a user's top albums on Last.fm or ListenBrainz.
//
//	Generated images are cached by request fingerprint with per-period TTLs.
//
// @contact.name   API Support
// @contact.url    https://github.com/guttosm/patchwork-service
//
// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT
//
// @host      localhost:8080
// @BasePath  /
//
// @tag.name        Patchwork
// @tag.description Patchwork image generation
//
// @tag.name        Cache
// @tag.description Cache inspection and maintenance
//
// @tag.name        Health
// @tag.description Health check endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/guttosm/patchwork-service/docs" // swagger docs

	"github.com/guttosm/patchwork-service/config"
	"github.com/guttosm/patchwork-service/internal/app"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.InitializeApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	server := app.NewServer(application.Router, cfg.Server.Port)
	server.OnShutdown(application.Close)

	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}
