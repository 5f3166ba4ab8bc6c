package aqicast

import (
	"errors"
	"fmt"
	"math"
)

var ErrScoreLenMismatch = errors.New("predicted and actual have different lengths")

// Scores summarizes held-out evaluation of a trained ensemble.
type Scores struct {
	MSE  float64 // mean squared error
	MAPE float64 // mean absolute percent error
}

func NewScores(predicted, actual []float64) (*Scores, error) {
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mape, err := MAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute percent error, %w", err)
	}
	return &Scores{
		MSE:  mse,
		MAPE: mape,
	}, nil
}

// Accuracy converts the percent error into a [0,1] accuracy figure.
func (s *Scores) Accuracy() float64 {
	return math.Max(0, 1-s.MAPE)
}

func MSE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrScoreLenMismatch
	}

	mse := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mse += math.Pow(actual[i]-predicted[i], 2.0)
	}
	mse /= float64(len(actual))
	return mse, nil
}

// MAPE floors the denominator at 1 since AQI targets of 0 are legal and would
// otherwise diverge.
func MAPE(predicted, actual []float64) (float64, error) {
	if len(predicted) != len(actual) {
		return 0, ErrScoreLenMismatch
	}

	mape := 0.0
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mape += math.Abs(actual[i]-predicted[i]) / math.Max(math.Abs(actual[i]), 1)
	}
	mape /= float64(len(actual))
	return mape, nil
}
