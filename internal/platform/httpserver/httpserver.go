// Package httpserver builds the listener for the pokedex API.
package httpserver

import (
	"net/http"
	"time"

	"pokedex/internal/platform/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 120 * time.Second

	// bodyTimeout bounds reading a request and writing its response. Uploads
	// of a few megabytes from slow clients fit comfortably.
	bodyTimeout = 30 * time.Second
)

// New returns a server bound to the configured port. The write timeout never
// undercuts the shutdown grace period so in-flight uploads can drain.
func New(cfg config.Server, handler http.Handler) *http.Server {
	write := max(bodyTimeout, cfg.ShutdownTimeout)
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       bodyTimeout,
		WriteTimeout:      write,
		IdleTimeout:       idleTimeout,
	}
}
