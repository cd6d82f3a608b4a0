package grid

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// minOverlap is the fraction of the spacing an overlap must exceed on both
// axes before a cell counts as intersecting. Shared edges do not count.
const minOverlap = 1e-3

type gridCell struct {
	geom.Polygonal
	Cell
}

// CellTree is a read-only spatial index over every cell of a grid.
type CellTree struct {
	tree *rtree.Rtree
	minX float64
	minY float64
}

// NewCellTree indexes every cell of ix.
func NewCellTree(ix *Index) *CellTree {
	t := &CellTree{
		tree: rtree.NewTree(25, 50),
		minX: ix.lon.Spacing() * minOverlap,
		minY: ix.lat.Spacing() * minOverlap,
	}
	for i := 0; i < ix.lon.Len(); i++ {
		for j := 0; j < ix.lat.Len(); j++ {
			b, _ := ix.CellBounds(i, j)
			t.tree.Insert(&gridCell{
				Polygonal: b,
				Cell: Cell{
					LonIndex: i,
					LatIndex: j,
					Lon:      ix.lon.Value(i),
					Lat:      ix.lat.Value(j),
				},
			})
		}
	}
	return t
}

// Intersecting returns the cells whose area overlaps box, ordered by
// longitude index then latitude index.
func (t *CellTree) Intersecting(box *geom.Bounds) []Cell {
	var cells []Cell
	for _, x := range t.tree.SearchIntersect(box) {
		c := x.(*gridCell)
		b := c.Bounds()
		dx := math.Min(box.Max.X, b.Max.X) - math.Max(box.Min.X, b.Min.X)
		dy := math.Min(box.Max.Y, b.Max.Y) - math.Max(box.Min.Y, b.Min.Y)
		if dx > t.minX && dy > t.minY {
			cells = append(cells, c.Cell)
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].LonIndex != cells[j].LonIndex {
			return cells[i].LonIndex < cells[j].LonIndex
		}
		return cells[i].LatIndex < cells[j].LatIndex
	})
	return cells
}
