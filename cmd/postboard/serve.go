package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alphabot-ai/postboard/internal/auth"
	"github.com/alphabot-ai/postboard/internal/config"
	httpapp "github.com/alphabot-ai/postboard/internal/http"
	"github.com/alphabot-ai/postboard/internal/logger"
	"github.com/alphabot-ai/postboard/internal/rate"
	"github.com/alphabot-ai/postboard/internal/store/sqlite"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 5 * time.Second

func runServer(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Init(cfg.Level())

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer store.Close()

	authSvc := auth.NewService(store, auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL), auth.Options{
		AdminEmail: cfg.AdminEmail,
		HashCost:   cfg.HashCost,
	})
	server, err := httpapp.NewServer(store, authSvc, rate.NewMemory(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logrus.Infof("postboard listening on %s", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logrus.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
