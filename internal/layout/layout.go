// Package layout builds the capacity-weighted raster that combines the
// installed capacity of every site onto the cells of a resource grid.
package layout

import (
	"encoding/json"
	"fmt"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
	"github.com/i474232898/renewable-site-aggregation/internal/site"
)

// Layout is a dense [lon][lat] raster of installed capacity in MW. Cells
// without a site hold exactly zero. A Layout is read-only once built.
type Layout struct {
	shape grid.Shape
	data  *sparse.DenseArray
}

// Build adds each site's capacity to its resolved cell. Sites sharing a cell
// are summed so co-located capacity is never dropped.
func Build(sites []site.Site, shape grid.Shape) (*Layout, error) {
	if shape.Lon <= 0 || shape.Lat <= 0 {
		return nil, fmt.Errorf("%w: layout shape %dx%d", grid.ErrInvalidResource, shape.Lon, shape.Lat)
	}

	data := sparse.ZerosDense(shape.Lon, shape.Lat)
	for _, s := range sites {
		c, err := s.Cell()
		if err != nil {
			return nil, err
		}
		if c.LonIndex < 0 || c.LonIndex >= shape.Lon || c.LatIndex < 0 || c.LatIndex >= shape.Lat {
			return nil, fmt.Errorf("%w: site %q cell (%d, %d) outside layout %dx%d",
				grid.ErrOutOfRange, s.Name, c.LonIndex, c.LatIndex, shape.Lon, shape.Lat)
		}
		data.AddVal(s.CapacityMW, c.LonIndex, c.LatIndex)
	}

	return &Layout{shape: shape, data: data}, nil
}

// Shape returns the raster shape, identical to the resource grid's.
func (l *Layout) Shape() grid.Shape { return l.shape }

// At returns the installed capacity of one cell.
func (l *Layout) At(lonIdx, latIdx int) float64 {
	return l.data.Get(lonIdx, latIdx)
}

// Total returns the installed capacity summed over every cell.
func (l *Layout) Total() float64 {
	return floats.Sum(l.data.Elements)
}

// Rows returns the raster as [lon][lat] nested slices.
func (l *Layout) Rows() [][]float64 {
	rows := make([][]float64, l.shape.Lon)
	for i := range rows {
		rows[i] = make([]float64, l.shape.Lat)
		for j := range rows[i] {
			rows[i][j] = l.data.Get(i, j)
		}
	}
	return rows
}

func (l *Layout) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Shape    grid.Shape  `json:"shape"`
		TotalMW  float64     `json:"totalMw"`
		Capacity [][]float64 `json:"capacityMw"`
	}{
		Shape:    l.shape,
		TotalMW:  l.Total(),
		Capacity: l.Rows(),
	})
}
