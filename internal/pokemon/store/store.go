// Package store holds the Record Store backends for pokemon records.
//
// Every backend enforces uniqueness of id and name, returns
// sentinel.ErrNotFound for missing keys and sentinel.ErrConflict for unique
// key collisions, and keeps no copies of records between calls.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"pokedex/internal/pokemon/models"
)

// Store is the full data-access surface. Services depend on narrower,
// consumer-side interfaces.
type Store interface {
	FindPage(ctx context.Context, skip, limit int) ([]*models.Pokemon, error)
	Count(ctx context.Context) (int, error)
	FindByID(ctx context.Context, id int) (*models.Pokemon, error)
	FindByName(ctx context.Context, name string) (*models.Pokemon, error)
	Insert(ctx context.Context, p *models.Pokemon) (*models.Pokemon, error)
	UpdateByID(ctx context.Context, id int, patch models.Patch) (*models.Pokemon, error)
	DeleteByID(ctx context.Context, id int) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects the backend selected by rawURL's scheme:
//
//	memory://                     in-process map (tests, demos)
//	sqlite:///var/lib/pokedex.db  single-file SQLite
//	postgres://user:pw@host/db    PostgreSQL
//
// The schema is created if missing.
func Open(ctx context.Context, rawURL string, logger *slog.Logger) (Store, error) {
	if rawURL == "" {
		rawURL = "memory://"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "memory":
		logger.WarnContext(ctx, "using in-memory record store; data is lost on restart")
		return NewInMemory(), nil
	case "sqlite", "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + u.Path
		}
		if u.Scheme == "file" {
			path = u.Opaque + u.Path
		}
		logger.InfoContext(ctx, "opening sqlite record store", "path", path)
		return OpenSQLite(ctx, path)
	case "postgres", "postgresql":
		logger.InfoContext(ctx, "connecting to postgres record store", "host", u.Host)
		return NewPostgres(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported store url scheme %q", u.Scheme)
	}
}
