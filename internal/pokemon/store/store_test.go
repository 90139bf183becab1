package store_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"

	"pokedex/internal/pokemon/models"
	"pokedex/internal/pokemon/store"
	"pokedex/pkg/platform/sentinel"
)

// behaviorSuite runs the same contract against every backend.
type behaviorSuite struct {
	suite.Suite
	open  func(t *testing.T) store.Store
	store store.Store
}

func (s *behaviorSuite) SetupTest() {
	s.store = s.open(s.T())
}

func (s *behaviorSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func TestInMemoryStore(t *testing.T) {
	suite.Run(t, &behaviorSuite{open: func(*testing.T) store.Store {
		return store.NewInMemory()
	}})
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, &behaviorSuite{open: func(t *testing.T) store.Store {
		st, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "pokedex.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		return st
	}})
}

func newPokemon(id int, name string) *models.Pokemon {
	return &models.Pokemon{
		ID:        id,
		Name:      name,
		Height:    7,
		Weight:    69,
		Types:     []string{"grass", "poison"},
		Abilities: []string{"overgrow", "chlorophyll"},
		Stats: []models.Stat{
			{Name: "speed", BaseStat: 45},
			{Name: "hp", BaseStat: 45},
			{Name: "attack", BaseStat: 49},
		},
		Sprites: models.Sprites{FrontDefault: fmt.Sprintf("https://img.example.com/%d.png", id)},
	}
}

func (s *behaviorSuite) seed(ids ...int) {
	for _, id := range ids {
		_, err := s.store.Insert(context.Background(), newPokemon(id, fmt.Sprintf("mon-%d", id)))
		s.Require().NoError(err)
	}
}

func (s *behaviorSuite) TestInsertRoundTripKeepsOrder() {
	ctx := context.Background()
	want := newPokemon(1, "bulbasaur")

	stored, err := s.store.Insert(ctx, want)
	s.Require().NoError(err)
	s.Empty(cmp.Diff(want, stored))

	got, err := s.store.FindByID(ctx, 1)
	s.Require().NoError(err)
	s.Empty(cmp.Diff(want, got))

	byName, err := s.store.FindByName(ctx, "bulbasaur")
	s.Require().NoError(err)
	s.Equal(1, byName.ID)
}

func (s *behaviorSuite) TestEmptySequencesComeBackEmpty() {
	ctx := context.Background()
	p := newPokemon(2, "ditto")
	p.Types, p.Abilities, p.Stats = nil, nil, nil

	_, err := s.store.Insert(ctx, p)
	s.Require().NoError(err)

	got, err := s.store.FindByID(ctx, 2)
	s.Require().NoError(err)
	s.NotNil(got.Types)
	s.NotNil(got.Abilities)
	s.NotNil(got.Stats)
	s.Empty(got.Types)
}

func (s *behaviorSuite) TestReturnedRecordsAreCopies() {
	ctx := context.Background()
	s.seed(1)

	got, err := s.store.FindByID(ctx, 1)
	s.Require().NoError(err)
	got.Types[0] = "fire"
	got.Stats[0].BaseStat = 999

	again, err := s.store.FindByID(ctx, 1)
	s.Require().NoError(err)
	s.Equal("grass", again.Types[0])
	s.Equal(45, again.Stats[0].BaseStat)
}

func (s *behaviorSuite) TestInsertConflicts() {
	ctx := context.Background()
	s.seed(1)

	s.Run("duplicate id", func() {
		_, err := s.store.Insert(ctx, newPokemon(1, "other"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
	s.Run("duplicate name", func() {
		_, err := s.store.Insert(ctx, newPokemon(2, "mon-1"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
	s.Run("name match is case-sensitive", func() {
		_, err := s.store.Insert(ctx, newPokemon(3, "MON-1"))
		s.NoError(err)
	})

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *behaviorSuite) TestFindMissing() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, 404)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByName(ctx, "missingno")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *behaviorSuite) TestIDsBeyondInt32() {
	ctx := context.Background()
	const big = 3_000_000_000

	_, err := s.store.FindByID(ctx, big)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Insert(ctx, newPokemon(big, "bigmon"))
	s.Require().NoError(err)

	got, err := s.store.FindByID(ctx, big)
	s.Require().NoError(err)
	s.Equal(big, got.ID)

	_, err = s.store.FindByID(ctx, big+1)
	s.ErrorIs(err, sentinel.ErrNotFound)

	deleted, err := s.store.DeleteByID(ctx, big)
	s.Require().NoError(err)
	s.True(deleted)
}

func (s *behaviorSuite) TestFindPageIsOrderedByID() {
	ctx := context.Background()
	s.seed(5, 1, 4, 2, 3)

	cases := []struct {
		name        string
		skip, limit int
		want        []int
	}{
		{"first window", 0, 2, []int{1, 2}},
		{"middle window", 2, 2, []int{3, 4}},
		{"short tail", 4, 10, []int{5}},
		{"past the end", 10, 5, nil},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			page, err := s.store.FindPage(ctx, tc.skip, tc.limit)
			s.Require().NoError(err)
			s.NotNil(page)
			var ids []int
			for _, p := range page {
				ids = append(ids, p.ID)
			}
			s.Equal(tc.want, ids)
		})
	}

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(5, n)
}

func (s *behaviorSuite) TestUpdateByID() {
	ctx := context.Background()
	s.seed(1, 2)

	s.Run("partial update leaves other fields", func() {
		weight := 100
		front := "https://img.example.com/new.png"
		got, err := s.store.UpdateByID(ctx, 1, models.Patch{Weight: &weight, FrontDefault: &front})
		s.Require().NoError(err)
		s.Equal(100, got.Weight)
		s.Equal(7, got.Height)
		s.Equal(front, got.Sprites.FrontDefault)
		s.Equal([]string{"grass", "poison"}, got.Types)

		stored, err := s.store.FindByID(ctx, 1)
		s.Require().NoError(err)
		s.Empty(cmp.Diff(got, stored))
	})

	s.Run("back sprite merges without dropping front", func() {
		back := "https://img.example.com/back.png"
		got, err := s.store.UpdateByID(ctx, 2, models.Patch{BackDefault: &back})
		s.Require().NoError(err)
		s.Equal("https://img.example.com/2.png", got.Sprites.FrontDefault)
		s.Equal(back, got.Sprites.BackDefault)
	})

	s.Run("rename moves the name index", func() {
		name := "ivysaur"
		_, err := s.store.UpdateByID(ctx, 1, models.Patch{Name: &name})
		s.Require().NoError(err)

		_, err = s.store.FindByName(ctx, "mon-1")
		s.ErrorIs(err, sentinel.ErrNotFound)
		got, err := s.store.FindByName(ctx, "ivysaur")
		s.Require().NoError(err)
		s.Equal(1, got.ID)
	})

	s.Run("rename onto a taken name conflicts", func() {
		name := "mon-2"
		_, err := s.store.UpdateByID(ctx, 1, models.Patch{Name: &name})
		s.ErrorIs(err, sentinel.ErrConflict)

		got, err := s.store.FindByID(ctx, 1)
		s.Require().NoError(err)
		s.Equal("ivysaur", got.Name)
	})

	s.Run("renaming to its own name is allowed", func() {
		name := "mon-2"
		_, err := s.store.UpdateByID(ctx, 2, models.Patch{Name: &name})
		s.NoError(err)
	})

	s.Run("missing id", func() {
		height := 1
		_, err := s.store.UpdateByID(ctx, 404, models.Patch{Height: &height})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *behaviorSuite) TestDeleteByID() {
	ctx := context.Background()
	s.seed(1)

	deleted, err := s.store.DeleteByID(ctx, 1)
	s.Require().NoError(err)
	s.True(deleted)

	deleted, err = s.store.DeleteByID(ctx, 1)
	s.Require().NoError(err)
	s.False(deleted, "second delete reports nothing removed")

	_, err = s.store.FindByID(ctx, 1)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// the freed name is reusable
	_, err = s.store.Insert(ctx, newPokemon(7, "mon-1"))
	s.NoError(err)
}

func (s *behaviorSuite) TestConcurrentInsertSameName() {
	ctx := context.Background()
	const goroutines = 20

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i := 1; i <= goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := s.store.Insert(ctx, newPokemon(id, "contested"))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load(), "exactly one insert should win")
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *behaviorSuite) TestPing() {
	s.NoError(s.store.Ping(context.Background()))
}

func TestOpenDispatchesOnScheme(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("empty url is memory", func(t *testing.T) {
		st, err := store.Open(ctx, "", logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := st.(*store.InMemory); !ok {
			t.Fatalf("expected *store.InMemory, got %T", st)
		}
	})

	t.Run("sqlite url", func(t *testing.T) {
		st, err := store.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "p.db"), logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer st.Close()
		if _, ok := st.(*store.SQLiteStore); !ok {
			t.Fatalf("expected *store.SQLiteStore, got %T", st)
		}
	})

	t.Run("unknown scheme", func(t *testing.T) {
		if _, err := store.Open(ctx, "mongodb://localhost/pokedex", logger); err == nil {
			t.Fatal("expected error for unsupported scheme")
		}
	})
}
