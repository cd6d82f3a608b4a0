package yield

import (
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
	"github.com/i474232898/renewable-site-aggregation/internal/layout"
	"github.com/i474232898/renewable-site-aggregation/internal/site"
)

var t0 = time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)

// testResource is a 5x7 grid with 3 hourly steps whose specific generation at
// (t, i, j) is value(t, i, j).
func testResource(t *testing.T, value func(t, i, j int) float64) *grid.Resource {
	t.Helper()
	ix, err := grid.NewIndex(
		[]float64{10.0, 10.25, 10.5, 10.75, 11.0},
		[]float64{-31.5, -31.25, -31.0, -30.75, -30.5, -30.25, -30.0},
	)
	require.NoError(t, err)

	times := []time.Time{t0, t0.Add(time.Hour), t0.Add(2 * time.Hour)}
	values := sparse.ZerosDense(len(times), 5, 7)
	for k := range times {
		for i := 0; i < 5; i++ {
			for j := 0; j < 7; j++ {
				values.Set(value(k, i, j), k, i, j)
			}
		}
	}
	res, err := grid.NewResource(ix, times, values)
	require.NoError(t, err)
	return res
}

func resolve(t *testing.T, res *grid.Resource, sites ...site.Site) []site.Site {
	t.Helper()
	r := site.NewRegistry()
	for _, s := range sites {
		require.NoError(t, r.Add(s))
	}
	require.NoError(t, r.Resolve(res.Index))
	out, err := r.Resolved()
	require.NoError(t, err)
	return out
}

func newAggregator(t *testing.T, res *grid.Resource, sites []site.Site) *Aggregator {
	t.Helper()
	lay, err := layout.Build(sites, res.Shape())
	require.NoError(t, err)
	agg, err := NewAggregator(res, lay)
	require.NoError(t, err)
	return agg
}

func wind(name string, lon, lat, mw float64) site.Site {
	return site.Site{Name: name, Technology: site.TechnologyWind, Lon: lon, Lat: lat, CapacityMW: mw}
}

func TestAggregateGenerationAndCapacityFactor(t *testing.T) {
	res := testResource(t, func(k, i, j int) float64 {
		if i == 1 && j == 2 {
			return []float64{0.6, 0.2, 0.1}[k]
		}
		return 0.9
	})
	sites := resolve(t, res, wind("site_0", 10.31, -31.05, 5))
	agg := newAggregator(t, res, sites)

	ss, err := agg.Aggregate(sites[0])
	require.NoError(t, err)

	assert.Equal(t, "site_0", ss.Name)
	assert.Equal(t, grid.Cell{LonIndex: 1, LatIndex: 2, Lon: 10.25, Lat: -31.0}, ss.Cell)
	assert.Equal(t, 10.31, ss.RequestedLon)
	assert.Equal(t, res.Times, ss.Times)

	assert.InDeltaSlice(t, []float64{3.0, 1.0, 0.5}, ss.GenerationMW, 1e-12)
	assert.InDeltaSlice(t, []float64{0.6, 0.2, 0.1}, ss.CapacityFactor, 1e-12)
	for k := range ss.GenerationMW {
		assert.Equal(t, ss.GenerationMW[k]/5, ss.CapacityFactor[k])
	}
	assert.InDelta(t, 1.5, ss.MeanGenerationMW, 1e-12)
	assert.InDelta(t, 0.3, ss.MeanCapacityFactor, 1e-12)
}

func TestAggregateUsesEachSitesOwnCapacity(t *testing.T) {
	res := testResource(t, func(k, i, j int) float64 { return 0.5 })
	sites := resolve(t, res,
		wind("small", 10.0, -31.5, 2),
		wind("large", 11.0, -30.0, 8),
	)
	out, err := newAggregator(t, res, sites).AggregateAll(sites, 2)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.InDelta(t, 1.0, out[0].MeanGenerationMW, 1e-12)
	assert.InDelta(t, 4.0, out[1].MeanGenerationMW, 1e-12)
	assert.InDelta(t, 0.5, out[0].MeanCapacityFactor, 1e-12)
	assert.InDelta(t, 0.5, out[1].MeanCapacityFactor, 1e-12)
}

func TestAggregateSharedCellPassesThroughCapacityFactorAboveOne(t *testing.T) {
	res := testResource(t, func(k, i, j int) float64 { return 0.6 })
	sites := resolve(t, res,
		wind("a", 10.74, -30.26, 5),
		wind("b", 10.80, -30.20, 7),
	)
	out, err := newAggregator(t, res, sites).AggregateAll(sites, 4)
	require.NoError(t, err)

	assert.InDelta(t, 7.2, out[0].MeanGenerationMW, 1e-12)
	assert.InDelta(t, 7.2/5, out[0].MeanCapacityFactor, 1e-12)
	assert.Greater(t, out[0].MeanCapacityFactor, 1.0)
}

func TestAggregateAllKeepsOrder(t *testing.T) {
	res := testResource(t, func(k, i, j int) float64 { return float64(i*7+j) / 100 })

	var decl []site.Site
	for i := 0; i < 5; i++ {
		for j := 0; j < 7; j++ {
			decl = append(decl, wind(
				string(rune('a'+i))+string(rune('a'+j)),
				10.0+0.25*float64(i), -31.5+0.25*float64(j), 1,
			))
		}
	}
	sites := resolve(t, res, decl...)
	out, err := newAggregator(t, res, sites).AggregateAll(sites, 3)
	require.NoError(t, err)

	require.Len(t, out, len(sites))
	for n, ss := range out {
		assert.Equal(t, sites[n].Name, ss.Name)
		assert.InDelta(t, float64(n)/100, ss.MeanGenerationMW, 1e-12)
	}
}

func TestAggregateRequiresResolvedSite(t *testing.T) {
	res := testResource(t, func(k, i, j int) float64 { return 0.5 })
	sites := resolve(t, res, wind("a", 10.5, -31.0, 1))
	agg := newAggregator(t, res, sites)

	_, err := agg.Aggregate(wind("stray", 10.5, -31.0, 1))
	assert.ErrorIs(t, err, site.ErrUnresolvedSite)
}

func TestAggregateRejectsSiteMissingFromLayout(t *testing.T) {
	res := testResource(t, func(k, i, j int) float64 { return 0.5 })
	sites := resolve(t, res, wind("a", 10.5, -31.0, 1), wind("b", 11.0, -30.0, 1))

	lay, err := layout.Build(sites[:1], res.Shape())
	require.NoError(t, err)
	agg, err := NewAggregator(res, lay)
	require.NoError(t, err)

	_, err = agg.AggregateAll(sites, 2)
	assert.ErrorIs(t, err, ErrSiteNotInLayout)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestAggregateRejectsSiteResolvedOnShiftedGrid(t *testing.T) {
	res := testResource(t, func(k, i, j int) float64 { return 0.5 })

	// Same shape as res, but every coordinate sits on a corner of res's cells.
	shifted, err := grid.NewIndex(
		[]float64{10.125, 10.375, 10.625, 10.875, 11.125},
		[]float64{-31.375, -31.125, -30.875, -30.625, -30.375, -30.125, -29.875},
	)
	require.NoError(t, err)

	r := site.NewRegistry()
	require.NoError(t, r.Add(wind("a", 10.4, -31.1, 3)))
	require.NoError(t, r.Resolve(shifted))
	sites, err := r.Resolved()
	require.NoError(t, err)

	agg := newAggregator(t, res, sites)

	_, err = agg.SelectCell(sites[0])
	assert.ErrorIs(t, err, ErrAmbiguousCellSelection)

	_, err = agg.Aggregate(sites[0])
	assert.ErrorIs(t, err, ErrAmbiguousCellSelection)
	assert.Contains(t, err.Error(), "covers 4 cells")

	_, err = agg.AggregateAll(sites, 2)
	assert.ErrorIs(t, err, ErrAmbiguousCellSelection)
}

func TestNewAggregatorRejectsMismatchedLayout(t *testing.T) {
	res := testResource(t, func(k, i, j int) float64 { return 0.5 })
	lay, err := layout.Build(nil, grid.Shape{Lon: 3, Lat: 3})
	require.NoError(t, err)

	_, err = NewAggregator(res, lay)
	assert.ErrorIs(t, err, grid.ErrInvalidResource)
}

func TestSelectCellReturnsResolvedCell(t *testing.T) {
	res := testResource(t, func(k, i, j int) float64 { return 0.5 })
	sites := resolve(t, res, wind("edge", 9.9, -29.9, 1))
	agg := newAggregator(t, res, sites)

	c, err := agg.SelectCell(sites[0])
	require.NoError(t, err)
	assert.Equal(t, 0, c.LonIndex)
	assert.Equal(t, 6, c.LatIndex)
}
