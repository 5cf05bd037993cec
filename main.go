package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sifis-home/wp6-mobile-application-api/internal/command"
	"github.com/sifis-home/wp6-mobile-application-api/internal/config"
	"github.com/sifis-home/wp6-mobile-application-api/internal/configstore"
	"github.com/sifis-home/wp6-mobile-application-api/internal/identity"
	"github.com/sifis-home/wp6-mobile-application-api/internal/server"
	"github.com/sifis-home/wp6-mobile-application-api/internal/status"
)

func main() {
	cfg, err := config.Load()
	logger := server.Logger(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// device.json is the root of trust; without it there is nothing to serve.
	id, err := identity.Load(cfg.InfoFilePath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Fatal().
				Str("path", cfg.InfoFilePath()).
				Msg("device identity not found; create it with create-device-info")
		}
		logger.Fatal().Err(err).Msg("could not load device identity")
	}

	store := configstore.New(cfg.BaseDir)
	reporter := status.NewReporter(cfg.BaseDir, cfg.StatusTimeout)
	dispatcher := command.NewDispatcher(cfg.ScriptsDir, command.NewRunner(cfg.ScriptTimeout), store, *logger)
	srv := server.New(id, store, reporter, dispatcher, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.ListenAddr()).
			Str("product", id.ProductName).
			Str("uuid", id.UUID.String()).
			Msg("mobile API listening")
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("server exited")
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-srv.StopRequested():
		logger.Info().Msg("power-state command accepted, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown incomplete")
	}
}
