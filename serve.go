package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishkalaria12/card-images/auth"
	"github.com/krishkalaria12/card-images/config"
	"github.com/krishkalaria12/card-images/database"
	handler "github.com/krishkalaria12/card-images/handlers"
	"github.com/krishkalaria12/card-images/hosting"
	"github.com/krishkalaria12/card-images/images"
	"github.com/krishkalaria12/card-images/router"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 5 * time.Second

func serve(ctx context.Context, configFile, envFile string) error {
	cfg, err := config.Load(configFile, envFile)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	db, err := database.Open(cfg.DatabaseURL, gormLogLevel(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	gateway, err := hosting.New(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := gateway.(io.Closer); ok {
		defer c.Close()
	}

	index := database.NewImageIndex(db)
	app, err := router.New(router.Options{
		Images:            handler.NewImageHandler(images.NewService(index, gateway)),
		Health:            handler.NewHealthHandler(index, auth.NewTokenProvider(cfg.OAuthTokenProvider)),
		Verifier:          auth.NewVerifier(cfg.OAuthSignKey),
		CORSOriginPattern: cfg.CORSOriginPattern,
		BodyLimit:         cfg.MaxUploadBytes,
		AccessLog:         true,
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("hosting", cfg.HostingProvider).Msg("server listening")
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-sigCtx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "trace", "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}
