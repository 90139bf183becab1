package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"pokedex/internal/ingestion/orphans"
	"pokedex/internal/platform/middleware"
	dErrors "pokedex/pkg/domain-errors"
	"pokedex/pkg/platform/httputil"
)

// checkTimeout bounds each readiness probe.
const checkTimeout = 2 * time.Second

// Check is one readiness dependency.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// OrphanLister reads the orphaned media ledger.
type OrphanLister interface {
	List(ctx context.Context) ([]orphans.Entry, error)
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type orphansResponse struct {
	Count   int             `json:"count"`
	Entries []orphans.Entry `json:"entries"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// readiness runs every check concurrently and reports 503 if any fails.
func readiness(logger *slog.Logger, checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		results := make([]error, len(checks))

		var g errgroup.Group
		for i, c := range checks {
			i, c := i, c
			g.Go(func() error {
				probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
				defer cancel()
				results[i] = c.Probe(probeCtx)
				return nil
			})
		}
		_ = g.Wait()

		resp := statusResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for i, c := range checks {
			if err := results[i]; err != nil {
				logger.WarnContext(ctx, "readiness check failed",
					"request_id", middleware.GetRequestID(ctx),
					"check", c.Name,
					"error", err,
				)
				resp.Checks[c.Name] = "unavailable"
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}

func listOrphans(logger *slog.Logger, ledger OrphanLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		entries, err := ledger.List(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "list orphaned media failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(fmt.Errorf("orphan ledger: %w", err), dErrors.CodeInternal, "failed to list orphaned media"))
			return
		}
		if entries == nil {
			entries = []orphans.Entry{}
		}
		httputil.WriteJSON(w, http.StatusOK, orphansResponse{Count: len(entries), Entries: entries})
	}
}
