// Package store persists resolved queries so they can be listed and replayed.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/pkg/mem0"
)

// DefaultRecentLimit is the number of recent queries listed when the caller
// does not ask for a specific count.
const DefaultRecentLimit = 3

// Store defines the memory persistence interface.
type Store interface {
	// Save records the tools resolved for query.
	Save(ctx context.Context, query string, tools []model.Tool) error

	// Recent returns up to limit distinct queries, most recent first.
	Recent(ctx context.Context, limit int) ([]string, error)

	// Lookup returns the most recently saved tools for query, matched
	// case-insensitively. It returns (nil, nil) when nothing matches.
	Lookup(ctx context.Context, query string) ([]model.Tool, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverNone     = "none"
	DriverMem0     = "mem0"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a Store.
type Options struct {
	Driver      string
	DatabaseURL string
	Mem0        mem0.Client
	UserID      string
	Pool        *PoolConfig
}

// Open creates the Store for opts.Driver and runs its migrations.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		st  Store
		err error
	)
	switch opts.Driver {
	case "", DriverNone:
		return Noop{}, nil
	case DriverMem0:
		if opts.Mem0 == nil {
			return nil, eris.New("store: mem0 driver requires a mem0 client")
		}
		st = NewMem0(opts.Mem0, opts.UserID)
	case DriverSQLite:
		st, err = NewSQLite(opts.DatabaseURL)
	case DriverPostgres:
		st, err = NewPostgres(ctx, opts.DatabaseURL, opts.Pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", opts.Driver)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: open %s", opts.Driver)
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrapf(err, "store: migrate %s", opts.Driver)
	}
	return st, nil
}

func recentLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return limit
}

// clock is overridden in tests to order rows deterministically.
type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }
