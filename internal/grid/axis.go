package grid

import (
	"fmt"
	"math"
	"sort"
)

// spacingTolerance is the relative deviation from the nominal spacing an axis step may have.
const spacingTolerance = 1e-6

// Axis is one spatial dimension of a resource grid: strictly increasing,
// uniformly spaced coordinate values. An Axis is immutable once constructed.
type Axis struct {
	name    string
	values  []float64
	spacing float64
}

// NewAxis validates values and builds an Axis. The spacing precondition is
// checked here once so that queries never need to re-validate it.
func NewAxis(name string, values []float64) (*Axis, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("%w: %s axis needs at least two values, got %d", ErrIrregularAxis, name, len(values))
	}

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s axis value %d is not finite", ErrIrregularAxis, name, i)
		}
	}

	spacing := (values[len(values)-1] - values[0]) / float64(len(values)-1)
	if spacing <= 0 {
		return nil, fmt.Errorf("%w: %s axis is not strictly increasing", ErrIrregularAxis, name)
	}

	for i := 1; i < len(values); i++ {
		step := values[i] - values[i-1]
		if step <= 0 {
			return nil, fmt.Errorf("%w: %s axis is not strictly increasing at index %d", ErrIrregularAxis, name, i)
		}
		if math.Abs(step-spacing) > spacingTolerance*spacing {
			return nil, fmt.Errorf("%w: %s axis step %g at index %d differs from spacing %g",
				ErrIrregularAxis, name, step, i, spacing)
		}
	}

	vals := make([]float64, len(values))
	copy(vals, values)

	return &Axis{name: name, values: vals, spacing: spacing}, nil
}

// Name returns the axis label used in diagnostics.
func (a *Axis) Name() string { return a.name }

// Len returns the number of coordinate values.
func (a *Axis) Len() int { return len(a.values) }

// Value returns the coordinate at index i.
func (a *Axis) Value(i int) float64 { return a.values[i] }

// Values returns a copy of the coordinate values.
func (a *Axis) Values() []float64 {
	out := make([]float64, len(a.values))
	copy(out, a.values)
	return out
}

// Spacing returns the nominal distance between neighbouring coordinates.
func (a *Axis) Spacing() float64 { return a.spacing }

// HalfSpacing returns half the nominal spacing, the extent of a cell on either side of its coordinate.
func (a *Axis) HalfSpacing() float64 { return a.spacing / 2 }

// Min returns the smallest coordinate.
func (a *Axis) Min() float64 { return a.values[0] }

// Max returns the largest coordinate.
func (a *Axis) Max() float64 { return a.values[len(a.values)-1] }

// Nearest returns the axis element closest to v and its index. Ties go to the
// lower index. Values further than half a cell beyond either end fail with
// ErrOutOfRange instead of being clamped to the edge cell.
func (a *Axis) Nearest(v float64) (float64, int, error) {
	half := a.HalfSpacing()
	lo, hi := a.Min()-half, a.Max()+half
	if !(v >= lo && v <= hi) {
		return 0, -1, fmt.Errorf("%w: %s %g outside [%g, %g]", ErrOutOfRange, a.name, v, lo, hi)
	}

	i := sort.SearchFloat64s(a.values, v)
	switch {
	case i == 0:
		return a.values[0], 0, nil
	case i == len(a.values):
		last := len(a.values) - 1
		return a.values[last], last, nil
	}

	if v-a.values[i-1] <= a.values[i]-v {
		return a.values[i-1], i - 1, nil
	}
	return a.values[i], i, nil
}

// CellBounds returns the interval the cell at index i spans along this axis.
func (a *Axis) CellBounds(i int) (float64, float64, error) {
	if i < 0 || i >= len(a.values) {
		return 0, 0, fmt.Errorf("%w: %s index %d outside [0, %d)", ErrOutOfRange, a.name, i, len(a.values))
	}
	half := a.HalfSpacing()
	return a.values[i] - half, a.values[i] + half, nil
}
