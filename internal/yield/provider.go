package yield

import (
	"context"
	"time"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
)

// ResourceProvider supplies a prepared resource grid: specific generation per
// cell and timestep, already converted from weather fields by a power model.
type ResourceProvider interface {
	Name() string
	Fetch(ctx context.Context) (*grid.Resource, error)
}

// Store is the contract the in-memory run store (and any future persistent store) must satisfy.
type Store interface {
	SaveRun(run Run)
	GetLatest() (Run, error)
	GetRange(from, to time.Time) ([]Run, error)
}
