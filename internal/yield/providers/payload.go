package providers

import (
	"fmt"
	"sort"
	"time"

	"github.com/ctessum/sparse"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
)

// gridPayload is the JSON document served by a grid-preparation service.
// Values are indexed [time][lon][lat].
type gridPayload struct {
	Lon    []float64     `json:"lon"`
	Lat    []float64     `json:"lat"`
	Times  []time.Time   `json:"times"`
	Values [][][]float64 `json:"values"`
}

func (p gridPayload) resource() (*grid.Resource, error) {
	ix, err := grid.NewIndex(p.Lon, p.Lat)
	if err != nil {
		return nil, err
	}

	if len(p.Values) != len(p.Times) {
		return nil, fmt.Errorf("%w: %d value slices for %d timesteps", grid.ErrInvalidResource, len(p.Values), len(p.Times))
	}
	values := sparse.ZerosDense(len(p.Times), len(p.Lon), len(p.Lat))
	for t, plane := range p.Values {
		if len(plane) != len(p.Lon) {
			return nil, fmt.Errorf("%w: timestep %d has %d longitude rows, want %d", grid.ErrInvalidResource, t, len(plane), len(p.Lon))
		}
		for i, row := range plane {
			if len(row) != len(p.Lat) {
				return nil, fmt.Errorf("%w: timestep %d row %d has %d values, want %d", grid.ErrInvalidResource, t, i, len(row), len(p.Lat))
			}
			for j, v := range row {
				values.Set(v, t, i, j)
			}
		}
	}

	times := make([]time.Time, len(p.Times))
	for i, ts := range p.Times {
		times[i] = ts.UTC()
	}
	return grid.NewResource(ix, times, values)
}

// sample is one value of a long-format grid file.
type sample struct {
	time  time.Time
	lon   float64
	lat   float64
	value float64
}

// resourceFromSamples builds a resource grid from long-format samples. The
// axes are the distinct sorted coordinates and every (time, lon, lat)
// combination must occur exactly once.
func resourceFromSamples(samples []sample) (*grid.Resource, error) {
	timeIdx := make(map[time.Time]int)
	lonIdx := make(map[float64]int)
	latIdx := make(map[float64]int)
	for _, s := range samples {
		timeIdx[s.time] = 0
		lonIdx[s.lon] = 0
		latIdx[s.lat] = 0
	}

	times := make([]time.Time, 0, len(timeIdx))
	for ts := range timeIdx {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i, ts := range times {
		timeIdx[ts] = i
	}
	lons := sortedKeys(lonIdx)
	lats := sortedKeys(latIdx)

	want := len(times) * len(lons) * len(lats)
	if len(samples) != want {
		return nil, fmt.Errorf("%w: %d samples, want %d (%d times x %d lon x %d lat)",
			grid.ErrInvalidResource, len(samples), want, len(times), len(lons), len(lats))
	}

	ix, err := grid.NewIndex(lons, lats)
	if err != nil {
		return nil, err
	}

	values := sparse.ZerosDense(len(times), len(lons), len(lats))
	seen := make(map[[3]int]bool, len(samples))
	for _, s := range samples {
		key := [3]int{timeIdx[s.time], lonIdx[s.lon], latIdx[s.lat]}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate sample at %s (%g, %g)",
				grid.ErrInvalidResource, s.time.Format(time.RFC3339), s.lon, s.lat)
		}
		seen[key] = true
		values.Set(s.value, key[0], key[1], key[2])
	}

	return grid.NewResource(ix, times, values)
}

// sortedKeys sorts the keys of m and stores each key's position back into m.
func sortedKeys(m map[float64]int) []float64 {
	keys := make([]float64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	for i, k := range keys {
		m[k] = i
	}
	return keys
}
