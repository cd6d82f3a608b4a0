package yield

import (
	"time"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
	"github.com/i474232898/renewable-site-aggregation/internal/layout"
	"github.com/i474232898/renewable-site-aggregation/internal/site"
)

// SiteSeries is the generation and capacity-factor time series of one site.
// GenerationMW, CapacityFactor and Times share the same length and order.
type SiteSeries struct {
	Name        string            `json:"name"`
	Technology  site.Technology   `json:"technology"`
	Orientation *site.Orientation `json:"orientation,omitempty"`
	CapacityMW  float64           `json:"capacityMw"`

	RequestedLon float64   `json:"requestedLon"`
	RequestedLat float64   `json:"requestedLat"`
	Cell         grid.Cell `json:"cell"`

	Times          []time.Time `json:"times"`
	GenerationMW   []float64   `json:"generationMw"`
	CapacityFactor []float64   `json:"capacityFactor"`

	MeanGenerationMW   float64 `json:"meanGenerationMw"`
	MeanCapacityFactor float64 `json:"meanCapacityFactor"`
}

// SiteSummary is a SiteSeries without its time series.
type SiteSummary struct {
	Name               string          `json:"name"`
	Technology         site.Technology `json:"technology"`
	Lon                float64         `json:"lon"`
	Lat                float64         `json:"lat"`
	CapacityMW         float64         `json:"capacityMw"`
	MeanGenerationMW   float64         `json:"meanGenerationMw"`
	MeanCapacityFactor float64         `json:"meanCapacityFactor"`
}

// Summary drops the time series.
func (s SiteSeries) Summary() SiteSummary {
	return SiteSummary{
		Name:               s.Name,
		Technology:         s.Technology,
		Lon:                s.Cell.Lon,
		Lat:                s.Cell.Lat,
		CapacityMW:         s.CapacityMW,
		MeanGenerationMW:   s.MeanGenerationMW,
		MeanCapacityFactor: s.MeanCapacityFactor,
	}
}

// Axes are the coordinate values of the grid a run was computed on.
type Axes struct {
	Lon []float64 `json:"lon"`
	Lat []float64 `json:"lat"`
}

// Run is the result of aggregating every registered site against one resource grid.
type Run struct {
	ID         string         `json:"id"`
	ComputedAt time.Time      `json:"computedAt"` // always UTC
	Provider   string         `json:"provider"`
	Axes       Axes           `json:"axes"`
	Layout     *layout.Layout `json:"layout"`
	Sites      []SiteSeries   `json:"sites"`
}

// Site returns the series of the named site.
func (r Run) Site(name string) (SiteSeries, bool) {
	for _, s := range r.Sites {
		if s.Name == name {
			return s, true
		}
	}
	return SiteSeries{}, false
}

// Summaries returns one summary per site in registry order.
func (r Run) Summaries() []SiteSummary {
	out := make([]SiteSummary, len(r.Sites))
	for i, s := range r.Sites {
		out[i] = s.Summary()
	}
	return out
}

// HistoryPoint is one site's summary statistics within a stored run.
type HistoryPoint struct {
	RunID              string    `json:"runId"`
	ComputedAt         time.Time `json:"computedAt"`
	MeanGenerationMW   float64   `json:"meanGenerationMw"`
	MeanCapacityFactor float64   `json:"meanCapacityFactor"`
}
