package aqicast

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotForecast(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	p, err := New(&fakeStore{}, testOptions(&now))
	require.Nil(t, err)

	rec, err := p.GenerateForecast(context.Background(), "São Paulo", -23.55, -46.63, 12)
	require.Nil(t, err)

	path := filepath.Join(t.TempDir(), "forecast.html")
	require.Nil(t, PlotForecast(rec, path))

	raw, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Contains(t, string(raw), "São Paulo")
	assert.Contains(t, string(raw), "Pollutant Forecast")
}
