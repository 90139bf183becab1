// Package gateway assembles the HTTP surface: the shared middleware chain,
// the catalog and ingestion routes under /api, and the operational endpoints.
package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	catalogHandler "pokedex/internal/catalog/handler"
	ingestHandler "pokedex/internal/ingestion/handler"
	"pokedex/internal/platform/metrics"
	"pokedex/internal/platform/middleware"
	dErrors "pokedex/pkg/domain-errors"
	"pokedex/pkg/platform/httputil"
	"pokedex/pkg/platform/middleware/metadata"
	"pokedex/pkg/platform/middleware/requesttime"
)

// Config carries everything the router mounts. Media, Orphans and Checks are
// optional.
type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Catalog        catalogHandler.Service
	Ingest         ingestHandler.Service
	MaxUploadBytes int64
	AllowedOrigins []string

	// Media serves locally stored uploads under /media.
	Media   http.Handler
	Orphans OrphanLister
	Checks  []Check
}

// NewRouter builds the root handler.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientIP)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
			Error:       string(dErrors.CodeBadRequest),
			Description: "method not allowed",
		})
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", readiness(logger, cfg.Checks))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	if cfg.Media != nil {
		r.Mount("/media", http.StripPrefix("/media", cfg.Media))
	}
	if cfg.Orphans != nil {
		r.Get("/ops/orphans", listOrphans(logger, cfg.Orphans))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.CORS(cfg.AllowedOrigins, logger))
		catalogHandler.New(cfg.Catalog, logger).Register(api)
		ingestHandler.New(cfg.Ingest, logger, cfg.MaxUploadBytes).Register(api)
	})

	return r
}
