package yield

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
	"github.com/i474232898/renewable-site-aggregation/internal/layout"
	"github.com/i474232898/renewable-site-aggregation/internal/site"
)

var (
	// ErrAmbiguousCellSelection is returned when a site's footprint does not select exactly one grid cell.
	ErrAmbiguousCellSelection = errors.New("ambiguous cell selection")

	// ErrSiteNotInLayout is returned when a site's capacity is missing from the layout it is aggregated against.
	ErrSiteNotInLayout = errors.New("site not in layout")
)

// Aggregator turns a resource grid and a capacity layout into per-site
// series. It holds no mutable state, so sites can be aggregated concurrently.
type Aggregator struct {
	resource *grid.Resource
	layout   *layout.Layout
	cells    *grid.CellTree
}

// NewAggregator checks that lay matches the shape of res and indexes its cells.
func NewAggregator(res *grid.Resource, lay *layout.Layout) (*Aggregator, error) {
	if res.Shape() != lay.Shape() {
		return nil, fmt.Errorf("%w: layout shaped %v, grid shaped %v", grid.ErrInvalidResource, lay.Shape(), res.Shape())
	}
	return &Aggregator{
		resource: res,
		layout:   lay,
		cells:    grid.NewCellTree(res.Index),
	}, nil
}

// SelectCell builds the one-cell footprint around the site's resolved
// coordinate and returns the single grid cell it covers.
func (a *Aggregator) SelectCell(s site.Site) (grid.Cell, error) {
	c, err := s.Cell()
	if err != nil {
		return grid.Cell{}, err
	}

	cells := a.cells.Intersecting(a.resource.Index.Footprint(c.Lon, c.Lat))
	if len(cells) != 1 {
		return grid.Cell{}, fmt.Errorf("%w: site %q footprint at (%g, %g) covers %d cells",
			ErrAmbiguousCellSelection, s.Name, c.Lon, c.Lat, len(cells))
	}
	if cells[0].LonIndex != c.LonIndex || cells[0].LatIndex != c.LatIndex {
		return grid.Cell{}, fmt.Errorf("%w: site %q resolved to cell (%d, %d) but footprint selects (%d, %d)",
			ErrAmbiguousCellSelection, s.Name, c.LonIndex, c.LatIndex, cells[0].LonIndex, cells[0].LatIndex)
	}
	return cells[0], nil
}

// Aggregate computes MW generation as the selected cell's specific generation
// times the layout capacity of that cell, and the capacity factor as
// generation over the site's own capacity. Capacity factors outside [0, 1]
// are returned as computed.
func (a *Aggregator) Aggregate(s site.Site) (SiteSeries, error) {
	cell, err := a.SelectCell(s)
	if err != nil {
		return SiteSeries{}, err
	}

	installed := a.layout.At(cell.LonIndex, cell.LatIndex)
	if installed < s.CapacityMW*(1-1e-9) {
		return SiteSeries{}, fmt.Errorf("%w: site %q needs %g MW at cell (%d, %d), layout holds %g MW",
			ErrSiteNotInLayout, s.Name, s.CapacityMW, cell.LonIndex, cell.LatIndex, installed)
	}

	specific, err := a.resource.Series(cell.LonIndex, cell.LatIndex)
	if err != nil {
		return SiteSeries{}, err
	}

	gen := make([]float64, len(specific))
	cf := make([]float64, len(specific))
	for t, v := range specific {
		gen[t] = v * installed
		cf[t] = gen[t] / s.CapacityMW
	}

	times := make([]time.Time, len(a.resource.Times))
	copy(times, a.resource.Times)

	return SiteSeries{
		Name:               s.Name,
		Technology:         s.Technology,
		Orientation:        s.Orientation,
		CapacityMW:         s.CapacityMW,
		RequestedLon:       s.Lon,
		RequestedLat:       s.Lat,
		Cell:               cell,
		Times:              times,
		GenerationMW:       gen,
		CapacityFactor:     cf,
		MeanGenerationMW:   stat.Mean(gen, nil),
		MeanCapacityFactor: stat.Mean(cf, nil),
	}, nil
}

// AggregateAll aggregates every site using up to workers goroutines. Results
// keep the order of sites; the first failing site (in that order) is reported.
func (a *Aggregator) AggregateAll(sites []site.Site, workers int) ([]SiteSeries, error) {
	workers = min(workers, len(sites))
	if workers < 1 {
		workers = 1
	}

	var (
		wg      sync.WaitGroup
		results = make([]SiteSeries, len(sites))
		errs    = make([]error, len(sites))
		jobs    = make(chan int)
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], errs[i] = a.Aggregate(sites[i])
			}
		}()
	}

	for i := range sites {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
