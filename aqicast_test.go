package aqicast

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/airsentinel/aqicast/airquality"
	"github.com/airsentinel/aqicast/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu           sync.Mutex
	observations []airquality.Observation
	recent       *airquality.Observation
	saved        []*ForecastRecord

	queryCalls   atomic.Int64
	queryStarted chan struct{}
	queryRelease chan struct{}
}

func (f *fakeStore) QueryObservations(_ context.Context, _ string, _ time.Time) ([]airquality.Observation, error) {
	f.queryCalls.Add(1)
	if f.queryStarted != nil {
		select {
		case f.queryStarted <- struct{}{}:
		default:
		}
	}
	if f.queryRelease != nil {
		<-f.queryRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	obs := make([]airquality.Observation, len(f.observations))
	copy(obs, f.observations)
	return obs, nil
}

func (f *fakeStore) MostRecentObservation(_ context.Context, _ string) (airquality.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recent != nil {
		return *f.recent, nil
	}
	if len(f.observations) > 0 {
		return f.observations[len(f.observations)-1], nil
	}
	return airquality.Observation{}, ErrNoObservations
}

func (f *fakeStore) SaveForecast(_ context.Context, rec *ForecastRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeStore) LatestForecast(_ context.Context, _ string) (*ForecastRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return nil, ErrNoForecast
	}
	return f.saved[len(f.saved)-1], nil
}

func testOptions(now *time.Time) *Options {
	return &Options{
		Rand:    rand.New(rand.NewPCG(1, 2)),
		NowFunc: func() time.Time { return *now },
	}
}

// rampObservations climb one AQI unit per hour so the fitted regression is
// exactly slope 1, intercept 1.
func rampObservations(n int, start time.Time) []airquality.Observation {
	obs := make([]airquality.Observation, 0, n)
	for i := 0; i < n; i++ {
		aqi := float64(60 + i)
		obs = append(obs, airquality.Observation{
			City:      "São Paulo",
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			AQI:       aqi,
			Pollutants: airquality.Pollutants{
				PM25: airquality.Float(aqi * 0.3),
				PM10: airquality.Float(aqi * 0.5),
				O3:   airquality.Float(aqi * 1.2),
			},
		})
	}
	return obs
}

func TestGenerateForecastNoHistory(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	p, err := New(&fakeStore{}, testOptions(&now))
	require.Nil(t, err)

	rec, err := p.GenerateForecast(context.Background(), "Salvador", -12.97, -38.50, 24)
	require.Nil(t, err)

	require.Len(t, rec.Predictions, 24)
	assert.Equal(t, "Salvador", rec.Location.City)
	assert.Equal(t, 24, rec.ForecastHours)
	assert.Equal(t, ModelName, rec.Model.Name)
	assert.Equal(t, ModelVersion, rec.Model.Version)
	// synthetic backfill covers the whole training window
	assert.Equal(t, 30*24-1, rec.Model.TrainingData.SampleCount)

	for i, pt := range rec.Predictions {
		assert.Equal(t, now.Add(time.Duration(i+1)*time.Hour), pt.Timestamp)
		assert.GreaterOrEqual(t, pt.AQI.Predicted, 0)
		assert.LessOrEqual(t, pt.AQI.Predicted, 500)
		assert.GreaterOrEqual(t, pt.AQI.Confidence, 0.5)
		assert.LessOrEqual(t, pt.AQI.Confidence, 0.95)
		assert.NotEmpty(t, pt.AQI.Category)
		assert.NotEmpty(t, pt.AQI.Color)
		assert.GreaterOrEqual(t, pt.Pollutants.PM25.Predicted, 0.0)
		assert.GreaterOrEqual(t, pt.Pollutants.PM10.Predicted, 0.0)
		assert.GreaterOrEqual(t, pt.Pollutants.O3.Predicted, 0.0)
		if i > 0 {
			assert.Less(t, pt.AQI.Confidence, rec.Predictions[i-1].AQI.Confidence)
		}
	}
}

func TestGenerateForecastConfidenceDecay(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	p, err := New(&fakeStore{}, testOptions(&now))
	require.Nil(t, err)

	rec, err := p.GenerateForecast(context.Background(), "São Paulo", -23.55, -46.63, 3)
	require.Nil(t, err)
	require.Len(t, rec.Predictions, 3)

	assert.InDelta(t, 0.85, rec.Predictions[0].AQI.Confidence, 1e-9)
	assert.InDelta(t, 0.75, rec.Predictions[1].AQI.Confidence, 1e-9)
	assert.InDelta(t, 0.65, rec.Predictions[2].AQI.Confidence, 1e-9)

	for _, pt := range rec.Predictions {
		assert.InDelta(t, pt.AQI.Confidence*0.9, pt.Pollutants.PM25.Confidence, 1e-9)
		assert.InDelta(t, pt.AQI.Confidence*0.9, pt.Pollutants.PM10.Confidence, 1e-9)
		assert.InDelta(t, pt.AQI.Confidence*0.85, pt.Pollutants.O3.Confidence, 1e-9)
	}
}

func TestGenerateForecastTracksBase(t *testing.T) {
	// afternoon hours outside the commute windows so no correction factor
	// skews the blend
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		observations: rampObservations(60, now.Add(-60*time.Hour)),
		recent: &airquality.Observation{
			City:      "São Paulo",
			Timestamp: now,
			AQI:       85,
			Pollutants: airquality.Pollutants{
				PM25: airquality.Float(85),
				PM10: airquality.Float(85),
			},
		},
	}
	p, err := New(store, testOptions(&now))
	require.Nil(t, err)

	rec, err := p.GenerateForecast(context.Background(), "São Paulo", -23.55, -46.63, 3)
	require.Nil(t, err)
	require.Len(t, rec.Predictions, 3)

	for _, pt := range rec.Predictions {
		assert.InDelta(t, 85.0, float64(pt.AQI.Predicted), 85.0*0.3)
	}
}

// flatObservations hold the same AQI for every hour, which makes the
// single-variable regression degenerate (zero variance in the regressor).
func flatObservations(n int, aqi float64, start time.Time) []airquality.Observation {
	obs := make([]airquality.Observation, 0, n)
	for i := 0; i < n; i++ {
		obs = append(obs, airquality.Observation{
			City:      "São Paulo",
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			AQI:       aqi,
		})
	}
	return obs
}

func TestGenerateForecastDegradesOnTrainingFailure(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	testData := map[string]struct {
		store   *fakeStore
		minReal int
		baseAQI float64
	}{
		"insufficient data": {
			store:   &fakeStore{observations: rampObservations(5, now.Add(-5*time.Hour))},
			minReal: 1, // disable the synthetic fallback
			baseAQI: 64,
		},
		"degenerate fit": {
			store:   &fakeStore{observations: flatObservations(60, 85, now.Add(-60*time.Hour))},
			baseAQI: 85,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := testOptions(&now)
			opt.MinRealObservations = td.minReal
			p, err := New(td.store, opt)
			require.Nil(t, err)

			rec, err := p.GenerateForecast(context.Background(), "São Paulo", -23.55, -46.63, 6)
			require.Nil(t, err)
			require.Len(t, rec.Predictions, 6)

			// the naive fallback serves: predictions random-walk around the
			// base observation within the per-hour noise amplitude
			for _, pt := range rec.Predictions {
				assert.InDelta(t, td.baseAQI, float64(pt.AQI.Predicted), 30)
				assert.GreaterOrEqual(t, pt.AQI.Confidence, 0.5)
				assert.LessOrEqual(t, pt.AQI.Confidence, 0.95)
			}

			st := p.ModelStatus("São Paulo")
			assert.False(t, st.IsTrained)
			assert.True(t, st.NeedsRetraining)
		})
	}
}

func TestGenerateForecastHoursOutOfRange(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	p, err := New(&fakeStore{}, testOptions(&now))
	require.Nil(t, err)

	for _, hours := range []int{-1, 0, 169} {
		_, err := p.GenerateForecast(context.Background(), "São Paulo", -23.55, -46.63, hours)
		assert.ErrorIs(t, err, ErrHoursOutOfRange)
	}
}

func TestTrain(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{observations: rampObservations(60, now.Add(-60*time.Hour))}
	p, err := New(store, testOptions(&now))
	require.Nil(t, err)

	res, err := p.Train(context.Background(), "São Paulo")
	require.Nil(t, err)
	assert.Equal(t, 59, res.SampleCount)
	assert.GreaterOrEqual(t, res.Accuracy, 0.0)
	assert.LessOrEqual(t, res.Accuracy, 1.0)

	st := p.ModelStatus("São Paulo")
	assert.True(t, st.IsTrained)
	assert.False(t, st.NeedsRetraining)
	assert.Equal(t, now, st.LastTraining)
}

func TestTrainInsufficientData(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{observations: rampObservations(5, now.Add(-5*time.Hour))}
	opt := testOptions(&now)
	opt.MinRealObservations = 1 // disable the synthetic fallback
	p, err := New(store, opt)
	require.Nil(t, err)

	_, err = p.Train(context.Background(), "São Paulo")
	assert.ErrorIs(t, err, features.ErrInsufficientData)

	st := p.ModelStatus("São Paulo")
	assert.False(t, st.IsTrained)
	assert.True(t, st.NeedsRetraining)
}

func TestTrainFailureKeepsPriorState(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{observations: rampObservations(60, now.Add(-60*time.Hour))}
	opt := testOptions(&now)
	opt.MinRealObservations = 1
	p, err := New(store, opt)
	require.Nil(t, err)

	res, err := p.Train(context.Background(), "São Paulo")
	require.Nil(t, err)

	store.mu.Lock()
	store.observations = store.observations[:5]
	store.mu.Unlock()

	_, err = p.Train(context.Background(), "São Paulo")
	require.ErrorIs(t, err, features.ErrInsufficientData)

	st := p.ModelStatus("São Paulo")
	assert.True(t, st.IsTrained)
	assert.Equal(t, res.Accuracy, st.Accuracy)
}

func TestTrainConcurrentSingleFit(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		observations: rampObservations(60, now.Add(-60*time.Hour)),
		queryStarted: make(chan struct{}, 1),
		queryRelease: make(chan struct{}),
	}
	p, err := New(store, testOptions(&now))
	require.Nil(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := p.Train(context.Background(), "São Paulo")
		assert.Nil(t, err)
	}()

	<-store.queryStarted
	_, err = p.Train(context.Background(), "São Paulo")
	assert.ErrorIs(t, err, ErrTrainingInProgress)
	assert.Equal(t, int64(1), store.queryCalls.Load())

	close(store.queryRelease)
	<-done
	assert.True(t, p.ModelStatus("São Paulo").IsTrained)
}

func TestTrainPerCityIndependence(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	p, err := New(store, testOptions(&now))
	require.Nil(t, err)

	_, err = p.Train(context.Background(), "São Paulo")
	require.Nil(t, err)
	_, err = p.Train(context.Background(), "Rio de Janeiro")
	require.Nil(t, err)

	sp := p.ModelStatus("São Paulo")
	rio := p.ModelStatus("Rio de Janeiro")
	assert.True(t, sp.IsTrained)
	assert.True(t, rio.IsTrained)
	// training Rio must not have touched the São Paulo ensemble
	assert.Equal(t, now, sp.LastTraining)
}

func TestModelStatusStaleness(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	p, err := New(&fakeStore{}, testOptions(&now))
	require.Nil(t, err)

	_, err = p.Train(context.Background(), "São Paulo")
	require.Nil(t, err)
	assert.False(t, p.ModelStatus("São Paulo").NeedsRetraining)

	now = now.Add(25 * time.Hour)
	st := p.ModelStatus("São Paulo")
	assert.True(t, st.NeedsRetraining)
	assert.InDelta(t, 25.0, st.HoursSinceTraining, 1e-9)
}

func TestGenerateForecastRetrainsWhenStale(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	p, err := New(store, testOptions(&now))
	require.Nil(t, err)

	_, err = p.GenerateForecast(context.Background(), "São Paulo", -23.55, -46.63, 6)
	require.Nil(t, err)
	require.Equal(t, int64(1), store.queryCalls.Load())

	// fresh ensemble, no retrain
	_, err = p.GenerateForecast(context.Background(), "São Paulo", -23.55, -46.63, 6)
	require.Nil(t, err)
	require.Equal(t, int64(1), store.queryCalls.Load())

	now = now.Add(25 * time.Hour)
	_, err = p.GenerateForecast(context.Background(), "São Paulo", -23.55, -46.63, 6)
	require.Nil(t, err)
	assert.Equal(t, int64(2), store.queryCalls.Load())
}
