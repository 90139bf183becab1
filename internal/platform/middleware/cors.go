package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/cors"

	dErrors "pokedex/pkg/domain-errors"
	"pokedex/pkg/platform/httputil"
)

// CORS enforces the origin allow-list. Requests without an Origin header
// (same-origin, curl, server-to-server) pass; a present Origin must match an
// entry exactly or the request is refused with 403 before reaching a handler.
// Allowed origins get credentialed CORS headers.
func CORS(allowedOrigins []string, logger *slog.Logger) func(http.Handler) http.Handler {
	headers := cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", HeaderRequestID},
		ExposedHeaders:   []string{HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return func(next http.Handler) http.Handler {
		withHeaders := headers(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && !slices.Contains(allowedOrigins, origin) {
				logger.WarnContext(r.Context(), "origin rejected",
					"request_id", GetRequestID(r.Context()),
					"origin", origin,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "CORS policy does not allow access from this origin"))
				return
			}
			withHeaders.ServeHTTP(w, r)
		})
	}
}
