package models

import (
	"testing"

	"github.com/airsentinel/aqicast/features"
	"github.com/stretchr/testify/assert"
)

func TestHeuristicPredict(t *testing.T) {
	tol := 1e-9
	testData := map[string]struct {
		aqi      float64
		pm25     float64
		pm10     float64
		hour     float64
		expected float64
	}{
		"morning rush": {100, 30, 50, 8, 79.35},  // 69 * 1.15
		"evening rush": {100, 30, 50, 18, 82.8},  // 69 * 1.20
		"night":        {100, 30, 50, 3, 62.1},   // 69 * 0.90
		"midday":       {100, 30, 50, 13, 69.0},  // no correction
		"zero":         {0, 0, 0, 12, 0.0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			v := features.Vector{
				features.AQI:       td.aqi,
				features.PM25:      td.pm25,
				features.PM10:      td.pm10,
				features.HourOfDay: td.hour,
			}
			assert.InDelta(t, td.expected, Heuristic{}.Predict(v), tol)
		})
	}
}

func TestTimeOfDayFactor(t *testing.T) {
	testData := map[string]struct {
		hour     int
		expected float64
	}{
		"midnight":      {0, nightFactor},
		"night edge":    {5, nightFactor},
		"early morning": {6, 1.0},
		"rush start":    {7, morningRushFactor},
		"rush end":      {9, morningRushFactor},
		"midday":        {12, 1.0},
		"evening start": {17, eveningRushFactor},
		"evening end":   {19, eveningRushFactor},
		"late evening":  {22, 1.0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, TimeOfDayFactor(td.hour))
		})
	}
}
