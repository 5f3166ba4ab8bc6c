package aqicast

import (
	"math/rand/v2"
	"time"
)

// Forecast horizon bounds in hours.
const (
	MinForecastHours = 1
	MaxForecastHours = 168
)

// Options configures a Predictor. A nil Options uses the defaults.
type Options struct {
	// TrainingWindowDays is how far back observations are pulled for
	// training.
	TrainingWindowDays int

	// MinRealObservations is the history size below which the synthetic
	// generator backfills the training set.
	MinRealObservations int

	// StaleAfter is the ensemble age beyond which a lazy retrain is
	// triggered at forecast time.
	StaleAfter time.Duration

	// Rand seeds the noise source for synthetic data and forecast
	// variability. Leave nil for a time-seeded source; fix it for
	// reproducible output.
	Rand *rand.Rand

	// NowFunc overrides the clock, mainly for tests.
	NowFunc func() time.Time
}

func NewDefaultOptions() *Options {
	return &Options{
		TrainingWindowDays:  30,
		MinRealObservations: 50,
		StaleAfter:          24 * time.Hour,
	}
}
