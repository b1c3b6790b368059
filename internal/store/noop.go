package store

import (
	"context"

	"github.com/sells-group/toolscout/internal/model"
)

// Noop is the Store used when persistence is disabled.
type Noop struct{}

func (Noop) Save(context.Context, string, []model.Tool) error { return nil }

func (Noop) Recent(context.Context, int) ([]string, error) { return nil, nil }

func (Noop) Lookup(context.Context, string) ([]model.Tool, error) { return nil, nil }

func (Noop) Migrate(context.Context) error { return nil }

func (Noop) Close() error { return nil }

var _ Store = Noop{}
