package providers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/i474232898/renewable-site-aggregation/internal/grid"
)

// gridRow is one line of a long-format grid file.
type gridRow struct {
	Time  string  `csv:"time"`
	Lon   float64 `csv:"lon"`
	Lat   float64 `csv:"lat"`
	Value float64 `csv:"value"`
}

// FileProvider implements yield.ResourceProvider for a CSV file with the
// header time,lon,lat,value (RFC3339 times). The file is re-read on every
// Fetch so a refreshed export is picked up by the next run.
type FileProvider struct {
	name string
	path string
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{name: "file-grid", path: path}
}

func (p *FileProvider) Name() string {
	return p.name
}

func (p *FileProvider) Fetch(ctx context.Context) (*grid.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("open grid file: %w", err)
	}
	defer f.Close()

	var rows []*gridRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse grid file %s: %w", p.path, err)
	}

	samples := make([]sample, len(rows))
	for i, r := range rows {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(r.Time))
		if err != nil {
			return nil, fmt.Errorf("%w: grid file row %d: %v", grid.ErrInvalidResource, i+1, err)
		}
		samples[i] = sample{time: ts.UTC(), lon: r.Lon, lat: r.Lat, value: r.Value}
	}

	return resourceFromSamples(samples)
}
