package grid

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Dimension selects one of the two spatial axes.
type Dimension int

const (
	Lon Dimension = iota
	Lat
)

func (d Dimension) String() string {
	switch d {
	case Lon:
		return "longitude"
	case Lat:
		return "latitude"
	default:
		return fmt.Sprintf("dimension(%d)", int(d))
	}
}

// Shape is the number of cells along each axis.
type Shape struct {
	Lon int `json:"lon"`
	Lat int `json:"lat"`
}

// Cell identifies one grid cell by its axis indices and coordinates.
type Cell struct {
	LonIndex int     `json:"lonIndex"`
	LatIndex int     `json:"latIndex"`
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
}

// Index answers nearest-coordinate queries against the two axes of a resource grid.
type Index struct {
	lon *Axis
	lat *Axis
}

// NewIndex builds an Index from raw longitude and latitude values.
func NewIndex(lons, lats []float64) (*Index, error) {
	lonAxis, err := NewAxis(Lon.String(), lons)
	if err != nil {
		return nil, err
	}
	latAxis, err := NewAxis(Lat.String(), lats)
	if err != nil {
		return nil, err
	}
	return &Index{lon: lonAxis, lat: latAxis}, nil
}

// Axis returns the axis for dimension d.
func (ix *Index) Axis(d Dimension) *Axis {
	if d == Lat {
		return ix.lat
	}
	return ix.lon
}

// Shape returns the grid shape.
func (ix *Index) Shape() Shape {
	return Shape{Lon: ix.lon.Len(), Lat: ix.lat.Len()}
}

// Nearest resolves v against the axis of dimension d.
func (ix *Index) Nearest(d Dimension, v float64) (float64, int, error) {
	return ix.Axis(d).Nearest(v)
}

// Resolve snaps a point onto its nearest grid coordinate pair. Each axis is
// resolved independently.
func (ix *Index) Resolve(lon, lat float64) (Cell, error) {
	rlon, i, err := ix.lon.Nearest(lon)
	if err != nil {
		return Cell{}, err
	}
	rlat, j, err := ix.lat.Nearest(lat)
	if err != nil {
		return Cell{}, err
	}
	return Cell{LonIndex: i, LatIndex: j, Lon: rlon, Lat: rlat}, nil
}

// CellBounds returns the rectangle covered by the cell at (lonIdx, latIdx).
func (ix *Index) CellBounds(lonIdx, latIdx int) (*geom.Bounds, error) {
	x0, x1, err := ix.lon.CellBounds(lonIdx)
	if err != nil {
		return nil, err
	}
	y0, y1, err := ix.lat.CellBounds(latIdx)
	if err != nil {
		return nil, err
	}
	return &geom.Bounds{
		Min: geom.Point{X: x0, Y: y0},
		Max: geom.Point{X: x1, Y: y1},
	}, nil
}

// Footprint returns a one-cell rectangle centred on (lon, lat).
func (ix *Index) Footprint(lon, lat float64) *geom.Bounds {
	hx, hy := ix.lon.HalfSpacing(), ix.lat.HalfSpacing()
	return &geom.Bounds{
		Min: geom.Point{X: lon - hx, Y: lat - hy},
		Max: geom.Point{X: lon + hx, Y: lat + hy},
	}
}
