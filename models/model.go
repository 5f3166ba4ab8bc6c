// Package models holds the three prediction strategies the forecaster blends:
// a fitted single-variable regression, a fixed-weight heuristic, and the
// ensemble combining them.
package models

import (
	"github.com/airsentinel/aqicast/features"
)

// Model predicts the next-hour AQI from a feature vector. Predict must never
// fail during serving; strategies degrade rather than error.
type Model interface {
	Predict(v features.Vector) float64
}
