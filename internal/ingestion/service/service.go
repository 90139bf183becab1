// Package service creates records from user submissions: the image goes to
// the media store first, then the record referencing it goes to the record
// store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pokedex/internal/ingestion/metrics"
	"pokedex/internal/ingestion/orphans"
	"pokedex/internal/media"
	"pokedex/internal/pokemon/models"
	dErrors "pokedex/pkg/domain-errors"
	"pokedex/pkg/platform/sentinel"
	"pokedex/pkg/requestcontext"
)

// Store is the slice of the record store ingestion needs.
type Store interface {
	FindByID(ctx context.Context, id int) (*models.Pokemon, error)
	FindByName(ctx context.Context, name string) (*models.Pokemon, error)
	Insert(ctx context.Context, p *models.Pokemon) (*models.Pokemon, error)
}

// MediaStore accepts an image and returns its public address.
type MediaStore interface {
	Upload(ctx context.Context, u media.Upload) (*media.Asset, error)
}

// OrphanLedger remembers uploads whose record never made it to the store.
type OrphanLedger interface {
	Record(ctx context.Context, e orphans.Entry) error
}

// Submission is a parsed upload request. Record.Sprites is ignored; the
// front sprite is always the uploaded image.
type Submission struct {
	Record models.Pokemon
	Image  media.Upload
}

type Service struct {
	store   Store
	media   MediaStore
	ledger  OrphanLedger
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

func WithOrphanLedger(l OrphanLedger) Option {
	return func(s *Service) {
		s.ledger = l
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(store Store, mediaStore MediaStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		media:  mediaStore,
		ledger: orphans.NewMemory(),
		logger: slog.Default(),
		tracer: otel.Tracer("pokedex/ingestion"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the submission, rejects it early when the id or name is
// already taken, uploads the image and inserts the record. The pre-check and
// the insert are not atomic; the store's unique constraints settle races and
// the losing upload is recorded as an orphan.
func (s *Service) Create(ctx context.Context, sub Submission) (created *models.Pokemon, err error) {
	record := sub.Record.Clone()
	record.Sprites = models.Sprites{}

	ctx, span := s.tracer.Start(ctx, "ingestion.Create", trace.WithAttributes(
		attribute.Int("pokemon.id", record.ID),
		attribute.String("pokemon.name", record.Name),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := record.ValidateFields(); err != nil {
		return nil, err
	}
	if sub.Image.Body == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "sprite image is required")
	}
	if err := s.ensureAvailable(ctx, record); err != nil {
		return nil, err
	}

	asset, err := s.media.Upload(ctx, sub.Image)
	if err != nil {
		s.metrics.IncrementUpload(metrics.OutcomeFailure)
		s.logger.ErrorContext(ctx, "media upload failed",
			"request_id", requestcontext.RequestID(ctx),
			"pokemon_id", record.ID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "failed to upload image")
	}
	s.metrics.IncrementUpload(metrics.OutcomeSuccess)
	span.SetAttributes(attribute.String("media.public_id", asset.PublicID))

	record.Sprites.FrontDefault = asset.URL
	if err := record.Validate(); err != nil {
		s.recordOrphan(ctx, record, asset, err)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "media store returned an unusable address")
	}

	created, err = s.store.Insert(ctx, record)
	if err != nil {
		s.recordOrphan(ctx, record, asset, err)
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "a pokemon with this id or name already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store pokemon")
	}

	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "pokemon created",
		"request_id", requestcontext.RequestID(ctx),
		"pokemon_id", created.ID,
		"media_public_id", asset.PublicID,
	)
	return created, nil
}

func (s *Service) ensureAvailable(ctx context.Context, record *models.Pokemon) error {
	if _, err := s.store.FindByID(ctx, record.ID); err == nil {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("a pokemon with id %d already exists", record.ID))
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pokemon id")
	}
	if _, err := s.store.FindByName(ctx, record.Name); err == nil {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("a pokemon named %q already exists", record.Name))
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check pokemon name")
	}
	return nil
}

// recordOrphan logs the stranded upload and adds it to the ledger, even when
// the request context is already cancelled. A ledger failure is logged and
// otherwise ignored.
func (s *Service) recordOrphan(ctx context.Context, record *models.Pokemon, asset *media.Asset, cause error) {
	requestID := requestcontext.RequestID(ctx)
	s.metrics.IncrementOrphaned()
	s.logger.ErrorContext(ctx, "uploaded media orphaned",
		"request_id", requestID,
		"pokemon_id", record.ID,
		"media_public_id", asset.PublicID,
		"media_url", asset.URL,
		"error", cause,
	)
	entry := orphans.Entry{
		PublicID:   asset.PublicID,
		URL:        asset.URL,
		PokemonID:  record.ID,
		Name:       record.Name,
		Reason:     cause.Error(),
		RequestID:  requestID,
		RecordedAt: requestcontext.Now(ctx).UTC(),
	}
	if err := s.ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to record orphaned media",
			"request_id", requestID,
			"media_public_id", asset.PublicID,
			"error", err,
		)
	}
}
