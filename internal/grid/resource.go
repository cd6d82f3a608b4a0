package grid

import (
	"fmt"
	"time"

	"github.com/ctessum/sparse"
)

// Resource is a materialized weather-resource grid: per-cell, per-timestep
// specific generation (output per MW installed) on the axes of Index.
type Resource struct {
	Index *Index
	Times []time.Time

	// values is shaped [time][lon][lat].
	values *sparse.DenseArray
}

// NewResource checks that values is shaped [len(times)][lon][lat] for ix and
// that times are strictly increasing.
func NewResource(ix *Index, times []time.Time, values *sparse.DenseArray) (*Resource, error) {
	if ix == nil {
		return nil, fmt.Errorf("%w: missing grid index", ErrInvalidResource)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: no timesteps", ErrInvalidResource)
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("%w: timestamps not strictly increasing at %d", ErrInvalidResource, i)
		}
	}

	shape := ix.Shape()
	want := []int{len(times), shape.Lon, shape.Lat}
	if values == nil || len(values.Shape) != len(want) {
		return nil, fmt.Errorf("%w: values must have dimensions %v", ErrInvalidResource, want)
	}
	for i := range want {
		if values.Shape[i] != want[i] {
			return nil, fmt.Errorf("%w: values shaped %v, want %v", ErrInvalidResource, values.Shape, want)
		}
	}

	return &Resource{Index: ix, Times: times, values: values}, nil
}

// Shape returns the spatial shape of the grid.
func (r *Resource) Shape() Shape { return r.Index.Shape() }

// Len returns the number of timesteps.
func (r *Resource) Len() int { return len(r.Times) }

// Series returns the specific generation time series of one cell.
func (r *Resource) Series(lonIdx, latIdx int) ([]float64, error) {
	shape := r.Shape()
	if lonIdx < 0 || lonIdx >= shape.Lon || latIdx < 0 || latIdx >= shape.Lat {
		return nil, fmt.Errorf("%w: cell (%d, %d) outside grid %dx%d", ErrOutOfRange, lonIdx, latIdx, shape.Lon, shape.Lat)
	}
	out := make([]float64, len(r.Times))
	for t := range r.Times {
		out[t] = r.values.Get(t, lonIdx, latIdx)
	}
	return out, nil
}
