package site

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// csvRow is one line of a site list. Numeric columns are kept as text so that
// empty cells can be told apart from zero.
type csvRow struct {
	Name       string `csv:"name"`
	Technology string `csv:"technology"`
	Lon        string `csv:"lon"`
	Lat        string `csv:"lat"`
	CapacityMW string `csv:"capacity_mw"`
	Tilt       string `csv:"tilt"`
	Azimuth    string `csv:"azimuth"`
	City       string `csv:"city"`
	Country    string `csv:"country"`
}

// LoadFile reads a site list from a CSV file. See LoadCSV.
func LoadFile(ctx context.Context, path string, gc Geocoder) ([]Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open site list: %w", err)
	}
	defer f.Close()
	return LoadCSV(ctx, f, gc)
}

// LoadCSV parses site declarations with the header
// name,technology,lon,lat,capacity_mw,tilt,azimuth,city,country.
// Rows without coordinates are geocoded from city/country when gc is set.
// Sites are returned in file order and are not validated.
func LoadCSV(ctx context.Context, r io.Reader, gc Geocoder) ([]Site, error) {
	var rows []*csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse site list: %w", err)
	}

	sites := make([]Site, 0, len(rows))
	for i, row := range rows {
		s, err := row.toSite(ctx, gc)
		if err != nil {
			return nil, fmt.Errorf("site list row %d: %w", i+1, err)
		}
		sites = append(sites, s)
	}
	return sites, nil
}

func (row *csvRow) toSite(ctx context.Context, gc Geocoder) (Site, error) {
	s := Site{Name: strings.TrimSpace(row.Name)}

	tech, err := ParseTechnology(row.Technology)
	if err != nil {
		return Site{}, err
	}
	s.Technology = tech

	if s.CapacityMW, err = parseFloat("capacity_mw", row.CapacityMW); err != nil {
		return Site{}, err
	}

	lonText, latText := strings.TrimSpace(row.Lon), strings.TrimSpace(row.Lat)
	switch {
	case lonText != "" || latText != "":
		if s.Lon, err = parseFloat("lon", lonText); err != nil {
			return Site{}, err
		}
		if s.Lat, err = parseFloat("lat", latText); err != nil {
			return Site{}, err
		}
	case strings.TrimSpace(row.City) != "" && gc != nil:
		s.Lon, s.Lat, err = gc.Geocode(ctx, strings.TrimSpace(row.City), strings.TrimSpace(row.Country))
		if err != nil {
			return Site{}, fmt.Errorf("%w: site %q: %v", ErrInvalidSite, s.Name, err)
		}
	default:
		return Site{}, fmt.Errorf("%w: site %q has no coordinates", ErrInvalidSite, s.Name)
	}

	tiltText, azText := strings.TrimSpace(row.Tilt), strings.TrimSpace(row.Azimuth)
	if tiltText != "" || azText != "" {
		var o Orientation
		if o.Tilt, err = parseFloat("tilt", tiltText); err != nil {
			return Site{}, err
		}
		if o.Azimuth, err = parseFloat("azimuth", azText); err != nil {
			return Site{}, err
		}
		s.Orientation = &o
	}

	return s, nil
}

func parseFloat(column, text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: column %s: %q is not a number", ErrInvalidSite, column, text)
	}
	return v, nil
}
