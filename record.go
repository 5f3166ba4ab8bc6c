package aqicast

import (
	"time"
)

// ModelName and ModelVersion tag every generated forecast record.
const (
	ModelName    = "Ensemble"
	ModelVersion = "1.0.0"
)

// ServeTTL is how long a persisted forecast is considered fresh enough to
// serve before a new generation cycle supersedes it.
const ServeTTL = 3 * time.Hour

// Coordinates of the forecast location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location identifies where a forecast applies.
type Location struct {
	City        string      `json:"city"`
	Coordinates Coordinates `json:"coordinates"`
}

// AQIPrediction is the headline prediction of one point.
type AQIPrediction struct {
	Predicted  int     `json:"predicted"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
	Color      string  `json:"color"`
}

// PollutantPrediction is a derived pollutant estimate with its own
// confidence, scaled down from the AQI confidence.
type PollutantPrediction struct {
	Predicted  float64 `json:"predicted"`
	Confidence float64 `json:"confidence"`
}

// PollutantPredictions groups the pollutants the model projects.
type PollutantPredictions struct {
	PM25 PollutantPrediction `json:"pm25"`
	PM10 PollutantPrediction `json:"pm10"`
	O3   PollutantPrediction `json:"o3"`
}

// WeatherPrediction perturbs the base weather state per hour.
type WeatherPrediction struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Pressure    float64 `json:"pressure"`
}

// PredictionPoint is one hour of a forecast.
type PredictionPoint struct {
	Timestamp  time.Time            `json:"timestamp"`
	AQI        AQIPrediction        `json:"aqi"`
	Pollutants PollutantPredictions `json:"pollutants"`
	Weather    WeatherPrediction    `json:"weather"`
}

// TrainingData records the provenance of the samples behind a forecast.
type TrainingData struct {
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	SampleCount int       `json:"sampleCount"`
}

// ModelInfo describes the ensemble state a forecast was generated from.
type ModelInfo struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Accuracy     float64      `json:"accuracy"`
	TrainingData TrainingData `json:"trainingData"`
}

// ForecastRecord is an ordered hour-by-hour projection for one city. Records
// are immutable once generated; the next generation cycle supersedes rather
// than updates them.
type ForecastRecord struct {
	ID             string            `json:"id"`
	Location       Location          `json:"location"`
	PredictionDate time.Time         `json:"predictionDate"`
	ForecastHours  int               `json:"forecastHours"`
	Predictions    []PredictionPoint `json:"predictions"`
	Model          ModelInfo         `json:"model"`
}

// Stale reports whether the record is too old to serve and a fresh
// generation cycle is due.
func (r *ForecastRecord) Stale(now time.Time) bool {
	return now.Sub(r.PredictionDate) > ServeTTL
}
