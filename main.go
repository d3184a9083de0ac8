package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketingax/pdf-generator-service/internal/config"
	"github.com/marketingax/pdf-generator-service/internal/container"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.New(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	app.Start(ctx)
	defer app.Stop()

	logger.Info("application initialized",
		"upload_folder", cfg.UploadDir,
		"max_file_age", cfg.MaxFileAge.String(),
		"compression_enabled", cfg.CompressionEnabled,
		"compression_level", cfg.CompressionLevel)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: app.Server().Handler(),
	}

	go func() {
		logger.Info("starting server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
