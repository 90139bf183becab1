// Package handler exposes record creation with an image upload over HTTP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pokedex/internal/ingestion/service"
	"pokedex/internal/platform/middleware"
	"pokedex/internal/pokemon/models"
	dErrors "pokedex/pkg/domain-errors"
	"pokedex/pkg/platform/httputil"
)

// Service defines the interface for record ingestion.
type Service interface {
	Create(ctx context.Context, sub service.Submission) (*models.Pokemon, error)
}

// Handler handles multipart uploads.
type Handler struct {
	logger         *slog.Logger
	ingest         Service
	maxUploadBytes int64
}

// New creates a Handler that refuses bodies larger than maxUploadBytes.
func New(ingest Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		logger:         logger,
		ingest:         ingest,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register registers the upload route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/upload", h.handleUpload)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.WarnContext(ctx, "invalid upload body",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, h.formError(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	sub, sprite, err := parseSubmission(r.MultipartForm)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid upload submission",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	defer sprite.Close()

	created, err := h.ingest.Create(ctx, sub)
	if err != nil {
		level := slog.LevelError
		if de, ok := dErrors.As(err); ok && httputil.StatusFor(de.Code) < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		h.logger.Log(ctx, level, "create pokemon failed",
			"request_id", requestID,
			"pokemon_id", sub.Record.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) formError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, multipart.ErrMessageTooLarge):
		return dErrors.Wrap(err, dErrors.CodeValidation,
			fmt.Sprintf("upload exceeds the %d byte limit", h.maxUploadBytes))
	default:
		return dErrors.Wrap(err, dErrors.CodeValidation, "request must be multipart/form-data")
	}
}
