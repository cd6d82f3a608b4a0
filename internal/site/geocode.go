package site

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
)

// Geocoder turns a place name into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city, country string) (lon, lat float64, err error)
}

// GoogleGeocoder resolves places through the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey string
}

// geocoderMu guards the package-level ApiKey of the geocoder client.
var geocoderMu sync.Mutex

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, city, country string) (float64, float64, error) {
	if g.apiKey == "" {
		return 0, 0, fmt.Errorf("geocoder api key is not configured")
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	geocoderMu.Lock()
	defer geocoderMu.Unlock()

	geocoder.ApiKey = g.apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %s, %s: %w", city, country, err)
	}
	return loc.Longitude, loc.Latitude, nil
}
