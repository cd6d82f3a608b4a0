package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "LOG_LEVEL", "LOG_FORMAT", "SITES_FILE", "GRID_SOURCE", "GRID_FILE", "GRID_URL",
	"HTTP_TIMEOUT", "REFRESH_INTERVAL", "STORE_MAX_HISTORY", "STORE_MAX_AGE",
	"AGGREGATION_WORKERS", "GEOCODER_API_KEY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "sites.csv", cfg.SitesFile)
	assert.Equal(t, GridSourceFile, cfg.GridSource)
	assert.Equal(t, "grid.csv", cfg.GridFile)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 48, cfg.StoreMaxHistory)
	assert.Equal(t, 168*time.Hour, cfg.StoreMaxAge)
	assert.Equal(t, 4, cfg.AggregationWorkers)
	assert.Empty(t, cfg.GeocoderAPIKey)
}

func TestHTTPGridSource(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRID_SOURCE", "http")

	_, err := fromEnv()
	require.Error(t, err, "GRID_URL is required for the http source")

	t.Setenv("GRID_URL", "http://grid.internal/v1/resource")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://grid.internal/v1/resource", cfg.GridURL)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestInvalidValues(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"LOG_LEVEL", "loud"},
		{"LOG_FORMAT", "xml"},
		{"GRID_SOURCE", "ftp"},
		{"HTTP_TIMEOUT", "soon"},
		{"HTTP_TIMEOUT", "-5s"},
		{"HTTP_TIMEOUT", "0s"},
		{"REFRESH_INTERVAL", "0s"},
		{"STORE_MAX_HISTORY", "many"},
		{"STORE_MAX_AGE", "-1h"},
		{"AGGREGATION_WORKERS", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := fromEnv()
			assert.Error(t, err)
		})
	}
}
