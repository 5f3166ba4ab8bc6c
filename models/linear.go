package models

import (
	"fmt"
	"math"

	"github.com/airsentinel/aqicast/features"
	"gonum.org/v1/gonum/stat"
)

// Linear is a closed-form simple linear regression of the next-hour AQI
// against the current AQI component alone.
type Linear struct {
	intercept float64
	slope     float64
	trained   bool
}

// NewLinear returns an untrained regression. Predicting through it yields the
// naive identity until Fit succeeds.
func NewLinear() *Linear {
	return &Linear{}
}

// Fit computes the slope and intercept from the training split.
func (l *Linear) Fit(x []features.Vector, y []float64) error {
	if len(x) == 0 {
		return ErrNoTrainingData
	}
	if len(x) != len(y) {
		return fmt.Errorf("training data has %d rows and target has %d, %w", len(x), len(y), ErrTargetLenMismatch)
	}

	aqi := make([]float64, len(x))
	for i, v := range x {
		aqi[i] = v[features.AQI]
	}

	intercept, slope := stat.LinearRegression(aqi, y, nil, false)
	if math.IsNaN(intercept) || math.IsNaN(slope) || math.IsInf(intercept, 0) || math.IsInf(slope, 0) {
		return ErrDegenerateFit
	}

	l.intercept = intercept
	l.slope = slope
	l.trained = true
	return nil
}

// Predict projects the current AQI one step forward. An untrained model falls
// back to the identity rather than erroring so that serving never hard-fails.
func (l *Linear) Predict(v features.Vector) float64 {
	if l == nil || !l.trained {
		return v[features.AQI]
	}
	return l.intercept + l.slope*v[features.AQI]
}

// Trained reports whether Fit has completed successfully.
func (l *Linear) Trained() bool {
	return l != nil && l.trained
}

// Coefficients returns the fitted intercept and slope.
func (l *Linear) Coefficients() (intercept, slope float64) {
	return l.intercept, l.slope
}
