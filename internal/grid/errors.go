package grid

import "errors"

var (
	// ErrOutOfRange is returned when a coordinate or index lies outside the grid extent.
	ErrOutOfRange = errors.New("coordinate out of grid range")

	// ErrIrregularAxis is returned when an axis is not strictly increasing with uniform spacing.
	ErrIrregularAxis = errors.New("irregular grid axis")

	// ErrInvalidResource is returned when a resource grid does not match its axes or time range.
	ErrInvalidResource = errors.New("invalid resource grid")
)
