package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"pokedex/internal/catalog/metrics"
	"pokedex/internal/pokemon/models"
	"pokedex/internal/pokemon/store"
	dErrors "pokedex/pkg/domain-errors"
)

type CatalogServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemory
	metrics *metrics.Metrics
	service *Service
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}

func (s *CatalogServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
}

func (s *CatalogServiceSuite) seed(id int, name string) {
	_, err := s.store.Insert(s.ctx, &models.Pokemon{
		ID:      id,
		Name:    name,
		Types:   []string{"normal"},
		Sprites: models.Sprites{FrontDefault: "https://img.example.com/" + name + ".png"},
	})
	s.Require().NoError(err)
}

func ptr[T any](v T) *T { return &v }

func (s *CatalogServiceSuite) TestClampPage() {
	cases := []struct {
		skip, limit         int
		wantSkip, wantLimit int
	}{
		{0, 0, 0, DefaultLimit},
		{-3, -1, 0, DefaultLimit},
		{10, 5, 10, 5},
		{0, 1000, 0, MaxLimit},
	}
	for _, tc := range cases {
		skip, limit := ClampPage(tc.skip, tc.limit)
		s.Equal(tc.wantSkip, skip)
		s.Equal(tc.wantLimit, limit)
	}
}

func (s *CatalogServiceSuite) TestList() {
	for i := 1; i <= 25; i++ {
		s.seed(i, string(rune('a'+i)))
	}

	s.Run("default window", func() {
		page, err := s.service.List(s.ctx, 0, 0)
		s.Require().NoError(err)
		s.Equal(25, page.Total)
		s.Equal(20, page.Count)
		s.Equal(1, page.Records[0].ID)
		s.Equal(20, page.Records[19].ID)
	})

	s.Run("tail window", func() {
		page, err := s.service.List(s.ctx, 20, 10)
		s.Require().NoError(err)
		s.Equal(25, page.Total)
		s.Equal(5, page.Count)
		s.Equal(21, page.Records[0].ID)
	})

	s.Run("skip past the end", func() {
		page, err := s.service.List(s.ctx, 1000, 10)
		s.Require().NoError(err)
		s.Equal(25, page.Total)
		s.Equal(0, page.Count)
		s.NotNil(page.Records)
	})
}

func (s *CatalogServiceSuite) TestGet() {
	s.seed(1, "bulbasaur")

	p, err := s.service.GetByID(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("bulbasaur", p.Name)

	p, err = s.service.GetByName(s.ctx, "bulbasaur")
	s.Require().NoError(err)
	s.Equal(1, p.ID)

	_, err = s.service.GetByID(s.ctx, 99999)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.GetByName(s.ctx, "Bulbasaur")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "name lookup is case-sensitive")
}

func (s *CatalogServiceSuite) TestUpdate() {
	s.seed(1, "bulbasaur")
	s.seed(2, "ivysaur")

	s.Run("applies supplied fields only", func() {
		p, err := s.service.Update(s.ctx, 1, models.Patch{Weight: ptr(100)})
		s.Require().NoError(err)
		s.Equal(100, p.Weight)
		s.Equal("bulbasaur", p.Name)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.RecordsUpdated))
	})

	s.Run("idempotent", func() {
		first, err := s.service.Update(s.ctx, 1, models.Patch{Height: ptr(9)})
		s.Require().NoError(err)
		second, err := s.service.Update(s.ctx, 1, models.Patch{Height: ptr(9)})
		s.Require().NoError(err)
		s.Equal(first, second)
	})

	s.Run("name collision", func() {
		_, err := s.service.Update(s.ctx, 1, models.Patch{Name: ptr("ivysaur")})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("invalid patch", func() {
		_, err := s.service.Update(s.ctx, 1, models.Patch{FrontDefault: ptr("not a url")})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing record", func() {
		_, err := s.service.Update(s.ctx, 404, models.Patch{Height: ptr(1)})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CatalogServiceSuite) TestDelete() {
	s.seed(25, "pikachu")

	s.Require().NoError(s.service.Delete(s.ctx, 25))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RecordsDeleted))

	err := s.service.Delete(s.ctx, 25)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "second delete reports not found")

	_, err = s.service.GetByID(s.ctx, 25)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// brokenStore fails every call, standing in for an unreachable database.
type brokenStore struct{ err error }

func (b brokenStore) FindPage(context.Context, int, int) ([]*models.Pokemon, error) { return nil, b.err }
func (b brokenStore) Count(context.Context) (int, error)                             { return 0, b.err }
func (b brokenStore) FindByID(context.Context, int) (*models.Pokemon, error)         { return nil, b.err }
func (b brokenStore) FindByName(context.Context, string) (*models.Pokemon, error)    { return nil, b.err }
func (b brokenStore) UpdateByID(context.Context, int, models.Patch) (*models.Pokemon, error) {
	return nil, b.err
}
func (b brokenStore) DeleteByID(context.Context, int) (bool, error) { return false, b.err }

func (s *CatalogServiceSuite) TestStoreFailuresAreInternal() {
	cause := errors.New("connection reset by peer")
	svc := New(brokenStore{err: cause}, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := svc.List(s.ctx, 0, 10)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.ErrorIs(err, cause)

	_, err = svc.GetByID(s.ctx, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = svc.GetByName(s.ctx, "x")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = svc.Update(s.ctx, 1, models.Patch{Height: ptr(1)})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	err = svc.Delete(s.ctx, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
