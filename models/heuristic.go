package models

import (
	"github.com/airsentinel/aqicast/features"
)

// Fixed weights for the pollutant combination. No fitting step; these encode
// how strongly each pollutant tracks the next-hour AQI in traffic-driven
// cities.
const (
	heuristicAQIWeight  = 0.5
	heuristicPM25Weight = 0.3
	heuristicPM10Weight = 0.2
)

// Time-of-day correction factors for commute windows.
const (
	morningRushFactor = 1.15
	eveningRushFactor = 1.20
	nightFactor       = 0.90
)

// Heuristic is a fixed-weight pollutant combination with a deterministic
// time-of-day correction. It needs no training, which keeps the ensemble
// anchored to known diurnal patterns when fitted state is thin or absent.
type Heuristic struct{}

// Predict combines the AQI, PM2.5 and PM10 components and applies the
// commute-window correction for the vector's hour of day.
func (Heuristic) Predict(v features.Vector) float64 {
	weighted := v[features.AQI]*heuristicAQIWeight +
		v[features.PM25]*heuristicPM25Weight +
		v[features.PM10]*heuristicPM10Weight
	return weighted * TimeOfDayFactor(int(v[features.HourOfDay]))
}

// TimeOfDayFactor returns the multiplicative correction for an hour of day.
func TimeOfDayFactor(hour int) float64 {
	switch {
	case hour >= 7 && hour <= 9:
		return morningRushFactor
	case hour >= 17 && hour <= 19:
		return eveningRushFactor
	case hour >= 0 && hour <= 5:
		return nightFactor
	}
	return 1.0
}
