package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/toolscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now clock
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, eris.New("sqlite: empty database path")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: utcNow}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS memories (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	query_key  TEXT NOT NULL,
	tools      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_memories_query_key ON memories(query_key);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, query string, tools []model.Tool) error {
	toolsJSON, err := json.Marshal(tools)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tools")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (id, query, query_key, tools, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), strings.TrimSpace(query), model.NormalizeQuery(query), string(toolsJSON), s.now(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert memory")
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]string, error) {
	// SQLite returns the bare query column from the row holding MAX(created_at).
	rows, err := s.db.QueryContext(ctx,
		`SELECT query, MAX(created_at) AS last FROM memories GROUP BY query_key ORDER BY last DESC LIMIT ?`,
		recentLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recent")
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var (
			query string
			last  any
		)
		if err := rows.Scan(&query, &last); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan recent")
		}
		out = append(out, query)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate recent")
}

func (s *SQLiteStore) Lookup(ctx context.Context, query string) ([]model.Tool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT tools FROM memories WHERE query_key = ? ORDER BY created_at DESC LIMIT 1`,
		model.NormalizeQuery(query),
	)

	var toolsJSON string
	err := row.Scan(&toolsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lookup memory")
	}

	var tools []model.Tool
	if err := json.Unmarshal([]byte(toolsJSON), &tools); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal tools")
	}
	return tools, nil
}

var _ Store = (*SQLiteStore)(nil)
