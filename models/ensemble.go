package models

import (
	"github.com/airsentinel/aqicast/features"
)

// Blend weights between the fitted and heuristic strategies.
const (
	linearWeight    = 0.4
	heuristicWeight = 0.6
)

// Ensemble blends the fitted regression with the heuristic. Mixing a data-fit
// model with a domain-knowledge one keeps predictions sensible when training
// data is sparse, which is common given the synthetic fallback.
type Ensemble struct {
	Linear    *Linear
	Heuristic Heuristic
}

// Predict returns the weighted blend, or the raw current AQI when no fitted
// regression is available.
func (e Ensemble) Predict(v features.Vector) float64 {
	if !e.Linear.Trained() {
		return v[features.AQI]
	}
	return e.Linear.Predict(v)*linearWeight + e.Heuristic.Predict(v)*heuristicWeight
}

// Trained reports whether the fitted constituent is present.
func (e Ensemble) Trained() bool {
	return e.Linear.Trained()
}
