package aqicast

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecastRecordStale(t *testing.T) {
	generated := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	rec := &ForecastRecord{PredictionDate: generated}

	testData := map[string]struct {
		now   time.Time
		stale bool
	}{
		"fresh":      {generated.Add(time.Hour), false},
		"at the ttl": {generated.Add(ServeTTL), false},
		"past ttl":   {generated.Add(ServeTTL + time.Minute), true},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.stale, rec.Stale(td.now))
		})
	}
}

func TestForecastRecordJSON(t *testing.T) {
	rec := &ForecastRecord{
		ID:             "a2f1",
		Location:       Location{City: "São Paulo", Coordinates: Coordinates{Lat: -23.55, Lng: -46.63}},
		PredictionDate: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		ForecastHours:  1,
		Predictions: []PredictionPoint{
			{
				Timestamp: time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC),
				AQI:       AQIPrediction{Predicted: 85, Confidence: 0.65, Category: "Moderate", Color: "yellow"},
			},
		},
		Model: ModelInfo{
			Name:     ModelName,
			Version:  ModelVersion,
			Accuracy: 0.82,
			TrainingData: TrainingData{
				StartDate:   time.Date(2025, 5, 11, 12, 0, 0, 0, time.UTC),
				EndDate:     time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
				SampleCount: 719,
			},
		},
	}

	raw, err := json.Marshal(rec)
	require.Nil(t, err)

	// consumers rely on these exact field names
	for _, field := range []string{
		`"location"`, `"coordinates"`, `"predictionDate"`, `"forecastHours"`,
		`"predictions"`, `"aqi"`, `"predicted"`, `"confidence"`, `"category"`,
		`"color"`, `"model"`, `"trainingData"`, `"sampleCount"`,
	} {
		assert.Contains(t, string(raw), field)
	}

	var decoded ForecastRecord
	require.Nil(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, rec.Location, decoded.Location)
	assert.Equal(t, rec.Model, decoded.Model)
	assert.Equal(t, rec.Predictions[0].AQI, decoded.Predictions[0].AQI)
}
