// Package service implements the catalog read, update and delete operations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pokedex/internal/catalog/metrics"
	"pokedex/internal/pokemon/models"
	dErrors "pokedex/pkg/domain-errors"
	"pokedex/pkg/platform/sentinel"
	"pokedex/pkg/requestcontext"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// NotFoundMessage is the description of every missing-record response.
const NotFoundMessage = "Pokemon not found"

// Store is the slice of the record store the catalog needs.
type Store interface {
	FindPage(ctx context.Context, skip, limit int) ([]*models.Pokemon, error)
	Count(ctx context.Context) (int, error)
	FindByID(ctx context.Context, id int) (*models.Pokemon, error)
	FindByName(ctx context.Context, name string) (*models.Pokemon, error)
	UpdateByID(ctx context.Context, id int, patch models.Patch) (*models.Pokemon, error)
	DeleteByID(ctx context.Context, id int) (bool, error)
}

// Service serves the catalog. It holds no state between calls.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		tracer: otel.Tracer("pokedex/catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClampPage applies the paging defaults: negative skip becomes 0, a
// non-positive limit becomes DefaultLimit and limits above MaxLimit are cut.
func ClampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return skip, limit
}

// List returns one id-ordered window of summaries plus the collection size.
// The count and the window are read separately, so a concurrent write may
// make them disagree.
func (s *Service) List(ctx context.Context, skip, limit int) (page *models.Page, err error) {
	skip, limit = ClampPage(skip, limit)
	ctx, span := s.tracer.Start(ctx, "catalog.List", trace.WithAttributes(
		attribute.Int("page.skip", skip),
		attribute.Int("page.limit", limit),
	))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("list", time.Now())

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to count pokemon")
	}
	records, err := s.store.FindPage(ctx, skip, limit)
	if err != nil {
		return nil, s.internal(ctx, err, "failed to list pokemon")
	}
	return models.NewPage(records, total), nil
}

func (s *Service) GetByID(ctx context.Context, id int) (p *models.Pokemon, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetByID", trace.WithAttributes(attribute.Int("pokemon.id", id)))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("get_by_id", time.Now())

	p, err = s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, NotFoundMessage)
		}
		return nil, s.internal(ctx, err, "failed to load pokemon")
	}
	return p, nil
}

// GetByName matches the stored name exactly.
func (s *Service) GetByName(ctx context.Context, name string) (p *models.Pokemon, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetByName", trace.WithAttributes(attribute.String("pokemon.name", name)))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("get_by_name", time.Now())

	p, err = s.store.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, NotFoundMessage)
		}
		return nil, s.internal(ctx, err, "failed to load pokemon")
	}
	return p, nil
}

// Update overwrites only the fields the patch supplies and returns the full
// record as stored afterwards.
func (s *Service) Update(ctx context.Context, id int, patch models.Patch) (p *models.Pokemon, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Update", trace.WithAttributes(attribute.Int("pokemon.id", id)))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("update", time.Now())

	if err := patch.Validate(); err != nil {
		return nil, err
	}
	p, err = s.store.UpdateByID(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, NotFoundMessage)
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "a pokemon with this name already exists")
		default:
			return nil, s.internal(ctx, err, "failed to update pokemon")
		}
	}
	s.metrics.IncrementUpdated()
	s.logger.InfoContext(ctx, "pokemon updated",
		"request_id", requestcontext.RequestID(ctx),
		"pokemon_id", id,
	)
	return p, nil
}

// Delete removes the record. Deleting an id that is already gone is a
// not-found error.
func (s *Service) Delete(ctx context.Context, id int) (err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Delete", trace.WithAttributes(attribute.Int("pokemon.id", id)))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("delete", time.Now())

	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return s.internal(ctx, err, "failed to delete pokemon")
	}
	if !deleted {
		return dErrors.New(dErrors.CodeNotFound, NotFoundMessage)
	}
	s.metrics.IncrementDeleted()
	s.logger.InfoContext(ctx, "pokemon deleted",
		"request_id", requestcontext.RequestID(ctx),
		"pokemon_id", id,
	)
	return nil
}

func (s *Service) internal(ctx context.Context, err error, msg string) error {
	s.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
