package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "pokedex/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})

	t.Run("conflict includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeConflict, "pokemon with this id already exists"))

		if w.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "conflict" {
			t.Fatalf("expected error code conflict, got %q", body["error"])
		}
		if body["error_description"] != "pokemon with this id already exists" {
			t.Fatalf("expected error_description to be returned for conflict")
		}
	})

	t.Run("upstream failure keeps its message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeUpstream, "image upload failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
		if !strings.Contains(w.Body.String(), "image upload failed") {
			t.Fatalf("expected upstream message in body, got %s", w.Body.String())
		}
	})
}

type renameRequest struct {
	Name string `json:"name"`
}

func (r *renameRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *renameRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	decode := func(body string) (*renameRequest, *httptest.ResponseRecorder, bool) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[renameRequest](w, r, logger, r.Context(), "req-1")
		return req, w, ok
	}

	t.Run("normalizes valid body", func(t *testing.T) {
		req, _, ok := decode(`{"name":"  ivysaur "}`)
		if !ok {
			t.Fatalf("expected decode to succeed")
		}
		if req.Name != "ivysaur" {
			t.Fatalf("expected trimmed name, got %q", req.Name)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, w, ok := decode(`{"nickname":"x"}`)
		if ok || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown field, got %d", w.Code)
		}
	})

	t.Run("rejects empty body", func(t *testing.T) {
		_, w, ok := decode(``)
		if ok || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for empty body, got %d", w.Code)
		}
	})

	t.Run("surfaces validation error", func(t *testing.T) {
		_, w, ok := decode(`{"name":"   "}`)
		if ok || w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid body, got %d", w.Code)
		}
	})
}
