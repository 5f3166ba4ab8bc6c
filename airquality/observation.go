// Package airquality defines the observation value types, the AQI scale, and
// the per-city baseline constants shared across the forecaster.
package airquality

import "time"

// Neutral defaults substituted when a weather field is absent from an
// observation.
const (
	DefaultTemperature = 25.0
	DefaultHumidity    = 60.0
	DefaultWindSpeed   = 10.0
	DefaultPressure    = 1013.0
)

// AQI bounds. Observed and predicted values are clamped to this range.
const (
	MinAQI = 0.0
	MaxAQI = 500.0
)

// Pollutants holds per-pollutant concentrations for one observation. A nil
// entry means the pollutant was not measured.
type Pollutants struct {
	PM25 *float64 `json:"pm25,omitempty"`
	PM10 *float64 `json:"pm10,omitempty"`
	O3   *float64 `json:"o3,omitempty"`
	NO2  *float64 `json:"no2,omitempty"`
	SO2  *float64 `json:"so2,omitempty"`
	CO   *float64 `json:"co,omitempty"`
}

// Weather holds the weather attributes of one observation. A nil entry means
// the attribute was not measured.
type Weather struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	WindSpeed   *float64 `json:"windSpeed,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
}

// Observation is a single measured or synthetic air quality sample for a city
// at a point in time. Observations are immutable once recorded.
type Observation struct {
	City       string     `json:"city"`
	Timestamp  time.Time  `json:"timestamp"`
	AQI        float64    `json:"aqi"`
	Pollutants Pollutants `json:"pollutants"`
	Weather    Weather    `json:"weather"`
}

// Float is a convenience for constructing optional fields.
func Float(v float64) *float64 {
	return &v
}

func orElse(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// PM25 returns the measured PM2.5 concentration or 0 when absent.
func (o Observation) PM25() float64 { return orElse(o.Pollutants.PM25, 0) }

// PM10 returns the measured PM10 concentration or 0 when absent.
func (o Observation) PM10() float64 { return orElse(o.Pollutants.PM10, 0) }

// O3 returns the measured ozone concentration or 0 when absent.
func (o Observation) O3() float64 { return orElse(o.Pollutants.O3, 0) }

// Temperature returns the measured temperature or the neutral default.
func (o Observation) Temperature() float64 {
	return orElse(o.Weather.Temperature, DefaultTemperature)
}

// Humidity returns the measured humidity or the neutral default.
func (o Observation) Humidity() float64 {
	return orElse(o.Weather.Humidity, DefaultHumidity)
}

// WindSpeed returns the measured wind speed or the neutral default.
func (o Observation) WindSpeed() float64 {
	return orElse(o.Weather.WindSpeed, DefaultWindSpeed)
}

// Pressure returns the measured pressure or the neutral default.
func (o Observation) Pressure() float64 {
	return orElse(o.Weather.Pressure, DefaultPressure)
}
