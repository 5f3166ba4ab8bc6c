package airquality

import "time"

// DefaultBaselineAQI is used for cities without a known baseline.
const DefaultBaselineAQI = 80.0

// Baseline AQI levels for the cities the original monitoring network covers.
var baselineAQI = map[string]float64{
	"São Paulo":      85,
	"Rio de Janeiro": 72,
	"Belo Horizonte": 95,
	"Porto Alegre":   68,
	"Salvador":       75,
}

// BaselineAQI returns the typical AQI level for a city, falling back to
// DefaultBaselineAQI when the city is unknown.
func BaselineAQI(city string) float64 {
	if v, ok := baselineAQI[city]; ok {
		return v
	}
	return DefaultBaselineAQI
}

// fallback base vectors per city: AQI, PM2.5, PM10, O3, temperature,
// humidity, wind speed, pressure.
var fallbackBase = map[string][8]float64{
	"São Paulo":      {85, 24, 45, 120, 28, 65, 18, 1013},
	"Rio de Janeiro": {72, 18, 38, 95, 32, 78, 12, 1015},
	"Belo Horizonte": {95, 28, 52, 140, 25, 55, 15, 1018},
}

// FallbackObservation returns a plausible current observation for a city with
// no recorded history. Unknown cities take the São Paulo profile.
func FallbackObservation(city string, now time.Time) Observation {
	base, ok := fallbackBase[city]
	if !ok {
		base = fallbackBase["São Paulo"]
	}
	return Observation{
		City:      city,
		Timestamp: now,
		AQI:       base[0],
		Pollutants: Pollutants{
			PM25: Float(base[1]),
			PM10: Float(base[2]),
			O3:   Float(base[3]),
		},
		Weather: Weather{
			Temperature: Float(base[4]),
			Humidity:    Float(base[5]),
			WindSpeed:   Float(base[6]),
			Pressure:    Float(base[7]),
		},
	}
}
