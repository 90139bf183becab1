package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pokedex/internal/pokemon/models"
	"pokedex/pkg/platform/sentinel"
)

//go:embed migrations/*.sql
var migrations embed.FS

// uniqueViolation is the SQLSTATE Postgres raises for duplicate keys.
const uniqueViolation = "23505"

const pokemonColumns = `id, name, height, weight, types, abilities, stats, sprites`

// PostgresStore persists records in PostgreSQL. Sequences live in TEXT[]
// columns and the nested documents (stats, sprites) in JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool to dsn and applies the schema.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := NewPostgresWithPool(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresWithPool wraps an existing pool without touching the schema.
func NewPostgresWithPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the pokemon table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ddl, err := migrations.ReadFile("migrations/postgres.sql")
	if err != nil {
		return fmt.Errorf("read postgres schema: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindPage(ctx context.Context, skip, limit int) ([]*models.Pokemon, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pokemonColumns+` FROM pokemon ORDER BY id ASC OFFSET $1 LIMIT $2`,
		skip, limit)
	if err != nil {
		return nil, fmt.Errorf("find pokemon page: %w", err)
	}
	defer rows.Close()

	page := make([]*models.Pokemon, 0, limit)
	for rows.Next() {
		p, err := scanPokemon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pokemon page: %w", err)
		}
		page = append(page, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pokemon page: %w", err)
	}
	return page, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM pokemon`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pokemon: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int) (*models.Pokemon, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pokemonColumns+` FROM pokemon WHERE id = $1`, id)
	p, err := scanPokemon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pokemon by id: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Pokemon, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pokemonColumns+` FROM pokemon WHERE name = $1`, name)
	p, err := scanPokemon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pokemon by name: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Insert(ctx context.Context, p *models.Pokemon) (*models.Pokemon, error) {
	if p == nil {
		return nil, fmt.Errorf("pokemon is required")
	}
	doc, err := encodeDocuments(p)
	if err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO pokemon (`+pokemonColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+pokemonColumns,
		p.ID, p.Name, p.Height, p.Weight, doc.types, doc.abilities, doc.stats, doc.sprites)
	stored, err := scanPokemon(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert pokemon %d: %w", p.ID, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("insert pokemon %d: %w", p.ID, err)
	}
	return stored, nil
}

// UpdateByID applies the patch in one statement: NULL parameters keep the
// column, and the sprites document is merged key by key.
func (s *PostgresStore) UpdateByID(ctx context.Context, id int, patch models.Patch) (*models.Pokemon, error) {
	var stats any
	if patch.Stats != nil {
		b, err := json.Marshal(nonNilSlice(*patch.Stats))
		if err != nil {
			return nil, fmt.Errorf("encode stats: %w", err)
		}
		stats = b
	}
	sprites, err := json.Marshal(spritesPatch(patch))
	if err != nil {
		return nil, fmt.Errorf("encode sprites: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE pokemon SET
			name      = COALESCE($2::text, name),
			height    = COALESCE($3::bigint, height),
			weight    = COALESCE($4::bigint, weight),
			types     = COALESCE($5::text[], types),
			abilities = COALESCE($6::text[], abilities),
			stats     = COALESCE($7::jsonb, stats),
			sprites   = sprites || $8::jsonb
		WHERE id = $1
		RETURNING `+pokemonColumns,
		id,
		nullable(patch.Name),
		nullable(patch.Height),
		nullable(patch.Weight),
		nullableSlice(patch.Types),
		nullableSlice(patch.Abilities),
		stats,
		sprites,
	)
	p, err := scanPokemon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update pokemon %d: %w", id, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("update pokemon %d: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id int) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pokemon WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete pokemon %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPokemon(row pgx.Row) (*models.Pokemon, error) {
	var (
		p       models.Pokemon
		stats   []byte
		sprites []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Height, &p.Weight, &p.Types, &p.Abilities, &stats, &sprites); err != nil {
		return nil, err
	}
	if err := decodeDocuments(&p, stats, sprites); err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableSlice(v *[]string) any {
	if v == nil {
		return nil
	}
	return nonNilSlice(*v)
}
