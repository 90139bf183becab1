package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"pokedex/internal/platform/config"
	"pokedex/internal/platform/httpserver"
	"pokedex/internal/platform/logger"
)

// serve runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests for at most the configured shutdown timeout.
func serve(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "startup failed", "error", err)
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("release resources failed", "error", err)
		}
	}()

	srv := httpserver.New(cfg.Server, a.handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting pokedex", "addr", srv.Addr, "store", redactURL(cfg.Store.URL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

// redactURL keeps credentials in a store URL out of the logs.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}
