package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pokedex/internal/pokemon/models"
	"pokedex/pkg/platform/sentinel"
)

// SQLiteStore persists records in a single SQLite file. Sequences and nested
// documents are stored as JSON text.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}

	// busy_timeout waits on the writer lock instead of failing with SQLITE_BUSY;
	// WAL lets readers proceed while a write is in flight.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", filepath.Clean(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	ddl, err := migrations.ReadFile("migrations/sqlite.sql")
	if err != nil {
		return fmt.Errorf("read sqlite schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindPage(ctx context.Context, skip, limit int) ([]*models.Pokemon, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pokemonColumns+` FROM pokemon ORDER BY id ASC LIMIT ? OFFSET ?`,
		limit, skip)
	if err != nil {
		return nil, fmt.Errorf("find pokemon page: %w", err)
	}
	defer rows.Close()

	page := make([]*models.Pokemon, 0, limit)
	for rows.Next() {
		p, err := scanSQLitePokemon(rows)
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

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM pokemon`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pokemon: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) FindByID(ctx context.Context, id int) (*models.Pokemon, error) {
	return s.findOne(ctx, s.db, `SELECT `+pokemonColumns+` FROM pokemon WHERE id = ?`, id)
}

func (s *SQLiteStore) FindByName(ctx context.Context, name string) (*models.Pokemon, error) {
	return s.findOne(ctx, s.db, `SELECT `+pokemonColumns+` FROM pokemon WHERE name = ?`, name)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) findOne(ctx context.Context, q queryRower, query string, arg any) (*models.Pokemon, error) {
	p, err := scanSQLitePokemon(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find pokemon: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, p *models.Pokemon) (*models.Pokemon, error) {
	if p == nil {
		return nil, fmt.Errorf("pokemon is required")
	}
	args, err := sqliteArgs(p)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pokemon (`+pokemonColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		args...)
	if err != nil {
		if isSQLiteConstraint(err) {
			return nil, fmt.Errorf("insert pokemon %d: %w", p.ID, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("insert pokemon %d: %w", p.ID, err)
	}
	return s.FindByID(ctx, p.ID)
}

// UpdateByID reads, patches and rewrites the row inside one transaction; the
// single connection serializes concurrent writers.
func (s *SQLiteStore) UpdateByID(ctx context.Context, id int, patch models.Patch) (*models.Pokemon, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.findOne(ctx, tx, `SELECT `+pokemonColumns+` FROM pokemon WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	next := patch.Apply(current)
	args, err := sqliteArgs(next)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE pokemon
		SET name = ?, height = ?, weight = ?, types = ?, abilities = ?, stats = ?, sprites = ?
		WHERE id = ?`,
		append(args[1:], id)...)
	if err != nil {
		if isSQLiteConstraint(err) {
			return nil, fmt.Errorf("update pokemon %d: %w", id, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("update pokemon %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return next, nil
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, id int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pokemon WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete pokemon %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete pokemon %d: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteArgs returns the column values in pokemonColumns order.
func sqliteArgs(p *models.Pokemon) ([]any, error) {
	doc, err := encodeDocuments(p)
	if err != nil {
		return nil, err
	}
	types, err := json.Marshal(doc.types)
	if err != nil {
		return nil, fmt.Errorf("encode types: %w", err)
	}
	abilities, err := json.Marshal(doc.abilities)
	if err != nil {
		return nil, fmt.Errorf("encode abilities: %w", err)
	}
	return []any{
		p.ID, p.Name, p.Height, p.Weight,
		string(types), string(abilities), string(doc.stats), string(doc.sprites),
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLitePokemon(row scanner) (*models.Pokemon, error) {
	var (
		p                models.Pokemon
		types, abilities string
		stats, sprites   string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Height, &p.Weight, &types, &abilities, &stats, &sprites); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(types), &p.Types); err != nil {
		return nil, fmt.Errorf("decode types: %w", err)
	}
	if err := json.Unmarshal([]byte(abilities), &p.Abilities); err != nil {
		return nil, fmt.Errorf("decode abilities: %w", err)
	}
	if err := decodeDocuments(&p, []byte(stats), []byte(sprites)); err != nil {
		return nil, err
	}
	return &p, nil
}

func isSQLiteConstraint(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
