package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	catalogMetrics "pokedex/internal/catalog/metrics"
	catalogService "pokedex/internal/catalog/service"
	"pokedex/internal/gateway"
	ingestMetrics "pokedex/internal/ingestion/metrics"
	"pokedex/internal/ingestion/orphans"
	ingestService "pokedex/internal/ingestion/service"
	"pokedex/internal/media"
	"pokedex/internal/platform/config"
	"pokedex/internal/platform/metrics"
	"pokedex/internal/platform/redis"
	"pokedex/internal/pokemon/store"
)

// app holds the wired server and what must be released on exit.
type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

type ledger interface {
	ingestService.OrphanLedger
	gateway.OrphanLister
}

func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		_ = a.Close()
		return nil, err
	}

	records, err := store.Open(ctx, cfg.Store.URL, logger)
	if err != nil {
		return fail(fmt.Errorf("open record store: %w", err))
	}
	a.closers = append(a.closers, records.Close)
	checks := []gateway.Check{{Name: "store", Probe: records.Ping}}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fail(fmt.Errorf("connect redis: %w", err))
	}
	var orphanLedger ledger = orphans.NewMemory()
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
		checks = append(checks, gateway.Check{Name: "redis", Probe: redisClient.Health})
		orphanLedger = orphans.NewRedis(redisClient.Client)
		logger.InfoContext(ctx, "orphaned media ledger backed by redis")
	}

	var (
		images     ingestService.MediaStore
		mediaRoute http.Handler
	)
	cld := media.CloudinaryConfig{
		URL:       cfg.Media.CloudinaryURL,
		CloudName: cfg.Media.CloudName,
		APIKey:    cfg.Media.APIKey,
		APISecret: cfg.Media.APISecret,
		Folder:    cfg.Media.Folder,
	}
	if cld.Configured() {
		c, err := media.NewCloudinary(cld)
		if err != nil {
			return fail(fmt.Errorf("configure cloudinary: %w", err))
		}
		images = c
	} else {
		local := media.NewMemoryStore(cfg.Media.PublicBaseURL, cfg.Media.Folder)
		logger.WarnContext(ctx, "cloudinary not configured; serving uploads from memory",
			"base_url", cfg.Media.PublicBaseURL,
		)
		images, mediaRoute = local, local
	}

	m := metrics.New()
	catalog := catalogService.New(records,
		catalogService.WithLogger(logger),
		catalogService.WithMetrics(catalogMetrics.New(m.Registerer())),
	)
	ingest := ingestService.New(records, images,
		ingestService.WithLogger(logger),
		ingestService.WithMetrics(ingestMetrics.New(m.Registerer())),
		ingestService.WithOrphanLedger(orphanLedger),
	)

	a.handler = gateway.NewRouter(gateway.Config{
		Logger:         logger,
		Metrics:        m,
		Catalog:        catalog,
		Ingest:         ingest,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Media:          mediaRoute,
		Orphans:        orphanLedger,
		Checks:         checks,
	})
	return a, nil
}
