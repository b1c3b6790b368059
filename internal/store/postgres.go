package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/toolscout/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
	now     clock
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// postgresQueries holds the statements run on every save and lookup. pgx
// caches their prepared form per connection.
var postgresQueries = map[string]string{
	"insert_memory": `INSERT INTO memories (id, query, query_key, tools, created_at) VALUES ($1, $2, $3, $4, $5)`,
	"lookup_memory": `SELECT tools FROM memories WHERE query_key = $1 ORDER BY created_at DESC LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: utcNow}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS memories (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	query      TEXT NOT NULL,
	query_key  TEXT NOT NULL,
	tools      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_memories_query_key ON memories(query_key, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, query string, tools []model.Tool) error {
	toolsJSON, err := json.Marshal(tools)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal tools")
	}

	_, err = s.pool.Exec(ctx, postgresQueries["insert_memory"],
		uuid.New().String(), strings.TrimSpace(query), model.NormalizeQuery(query), toolsJSON, s.now(),
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert memory")
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT query FROM (
			SELECT DISTINCT ON (query_key) query, created_at
			FROM memories
			ORDER BY query_key, created_at DESC
		) latest ORDER BY created_at DESC LIMIT $1`,
		recentLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recent")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			return nil, eris.Wrap(err, "postgres: scan recent")
		}
		out = append(out, query)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate recent")
}

func (s *PostgresStore) Lookup(ctx context.Context, query string) ([]model.Tool, error) {
	var toolsJSON []byte
	err := s.pool.QueryRow(ctx, postgresQueries["lookup_memory"], model.NormalizeQuery(query)).Scan(&toolsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: lookup memory")
	}

	var tools []model.Tool
	if err := json.Unmarshal(toolsJSON, &tools); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal tools")
	}
	return tools, nil
}

var _ Store = (*PostgresStore)(nil)
