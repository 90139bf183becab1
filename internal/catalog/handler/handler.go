// Package handler exposes the catalog over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pokedex/internal/catalog/service"
	"pokedex/internal/platform/middleware"
	"pokedex/internal/pokemon/models"
	dErrors "pokedex/pkg/domain-errors"
	"pokedex/pkg/platform/httputil"
)

// Service defines the catalog operations the handler needs.
type Service interface {
	List(ctx context.Context, skip, limit int) (*models.Page, error)
	GetByID(ctx context.Context, id int) (*models.Pokemon, error)
	GetByName(ctx context.Context, name string) (*models.Pokemon, error)
	Update(ctx context.Context, id int, patch models.Patch) (*models.Pokemon, error)
	Delete(ctx context.Context, id int) error
}

// Handler handles the /pokemon endpoints.
type Handler struct {
	logger  *slog.Logger
	catalog Service
}

func New(catalog Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, catalog: catalog}
}

// Register registers the catalog routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/pokemon", h.handleList)
	r.Get("/pokemon/name/{name}", h.handleGetByName)
	r.Get("/pokemon/{id}", h.handleGetByID)
	r.Put("/pokemon/{id}", h.handleUpdate)
	r.Delete("/pokemon/{id}", h.handleDelete)
}

// handleList serves GET /pokemon?limit=&skip=. Unparseable or out-of-range
// paging values fall back to their defaults.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	skip := queryInt(q.Get("skip"), 0)
	limit := queryInt(q.Get("limit"), 0)

	page, err := h.catalog.List(ctx, skip, limit)
	if err != nil {
		h.fail(ctx, w, err, "list pokemon failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, service.NotFoundMessage))
		return
	}

	p, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		h.fail(ctx, w, err, "get pokemon failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleGetByName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	p, err := h.catalog.GetByName(ctx, name)
	if err != nil {
		h.fail(ctx, w, err, "get pokemon by name failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	id, ok := pathID(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, service.NotFoundMessage))
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if !req.MatchesPath(id) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "id in body does not match the path"))
		return
	}

	p, err := h.catalog.Update(ctx, id, req.Patch())
	if err != nil {
		h.fail(ctx, w, err, "update pokemon failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, service.NotFoundMessage))
		return
	}

	if err := h.catalog.Delete(ctx, id); err != nil {
		h.fail(ctx, w, err, "delete pokemon failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DeleteResponse{
		Message: "pokemon deleted successfully",
		ID:      id,
	})
}

// fail logs client errors at warn and everything else at error, then writes
// the mapped response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	level := slog.LevelError
	if httputil.StatusFor(codeOf(err)) < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func codeOf(err error) dErrors.Code {
	if de, ok := dErrors.As(err); ok {
		return de.Code
	}
	return dErrors.CodeInternal
}

// pathID parses the {id} segment. Anything that is not a positive integer
// cannot name a record.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
