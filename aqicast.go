// Package aqicast generates short-horizon air quality forecasts. It trains a
// small per-city model ensemble from historical observations, backfilling with
// synthetic data when real history is thin, and projects it forward hour by
// hour with decaying confidence.
package aqicast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/airsentinel/aqicast/airquality"
	"github.com/airsentinel/aqicast/features"
	"github.com/airsentinel/aqicast/models"
	"github.com/airsentinel/aqicast/synthetic"
	"github.com/google/uuid"
)

var (
	ErrNoStore            = errors.New("no historical data store")
	ErrHoursOutOfRange    = errors.New("forecast hours out of range")
	ErrTrainingInProgress = errors.New("training already in progress")
	ErrNoObservations     = errors.New("no observations for city")
	ErrNoForecast         = errors.New("no persisted forecast for city")
)

// accuracy reported when the test split is empty and no held-out evaluation
// is possible
const defaultAccuracy = 0.8

// Store is the historical data collaborator. Observations are read to build
// training data; forecast records are persisted once computed. Persistence
// failing is a separate outcome from forecast computation succeeding.
type Store interface {
	// QueryObservations returns observations for a city since the given
	// time, ordered ascending by timestamp.
	QueryObservations(ctx context.Context, city string, since time.Time) ([]airquality.Observation, error)

	// MostRecentObservation returns the latest observation for a city, or
	// ErrNoObservations when none exists.
	MostRecentObservation(ctx context.Context, city string) (airquality.Observation, error)

	// SaveForecast persists a generated forecast record.
	SaveForecast(ctx context.Context, rec *ForecastRecord) error

	// LatestForecast returns the most recently persisted record for a city,
	// or ErrNoForecast when none exists.
	LatestForecast(ctx context.Context, city string) (*ForecastRecord, error)
}

// TrainingResult reports the outcome of one training run.
type TrainingResult struct {
	Accuracy    float64 `json:"accuracy"`
	SampleCount int     `json:"sampleCount"`
}

// ModelStatus describes the standing ensemble state for one city.
type ModelStatus struct {
	City               string    `json:"city"`
	IsTrained          bool      `json:"isTrained"`
	LastTraining       time.Time `json:"lastTrainingTimestamp"`
	Accuracy           float64   `json:"accuracy"`
	HoursSinceTraining float64   `json:"hoursSinceTraining"`
	NeedsRetraining    bool      `json:"needsRetraining"`
}

// cityEnsemble is the trained state for one city. trainMu is the single-slot
// training guard; mu protects the fitted state swapped in by a completed run.
type cityEnsemble struct {
	trainMu sync.Mutex
	mu      sync.RWMutex

	linear       *models.Linear
	lastTraining time.Time
	accuracy     float64
	sampleCount  int
	dataStart    time.Time
	dataEnd      time.Time
}

func (ce *cityEnsemble) trainingResult() *TrainingResult {
	ce.mu.RLock()
	defer ce.mu.RUnlock()
	return &TrainingResult{Accuracy: ce.accuracy, SampleCount: ce.sampleCount}
}

// Predictor owns the per-city ensembles and drives training and forecast
// generation against a historical data store.
type Predictor struct {
	opt     *Options
	store   Store
	nowFunc func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.RWMutex
	cities map[string]*cityEnsemble
}

// New creates a Predictor over the given store. If opt is nil a default is
// used.
func New(store Store, opt *Options) (*Predictor, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	if opt == nil {
		opt = NewDefaultOptions()
	}

	def := NewDefaultOptions()
	if opt.TrainingWindowDays <= 0 {
		opt.TrainingWindowDays = def.TrainingWindowDays
	}
	if opt.MinRealObservations <= 0 {
		opt.MinRealObservations = def.MinRealObservations
	}
	if opt.StaleAfter <= 0 {
		opt.StaleAfter = def.StaleAfter
	}

	rng := opt.Rand
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now^0x9e3779b97f4a7c15))
	}
	nowFunc := opt.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}

	return &Predictor{
		opt:     opt,
		store:   store,
		nowFunc: nowFunc,
		rng:     rng,
		cities:  make(map[string]*cityEnsemble),
	}, nil
}

func (p *Predictor) now() time.Time {
	return p.nowFunc()
}

// newRand derives an independent noise source so concurrent forecast and
// training runs do not contend on the parent generator.
func (p *Predictor) newRand() *rand.Rand {
	p.rngMu.Lock()
	defer p.rngMu.Unlock()
	return rand.New(rand.NewPCG(p.rng.Uint64(), p.rng.Uint64()))
}

func (p *Predictor) ensemble(city string) *cityEnsemble {
	p.mu.RLock()
	ce, ok := p.cities[city]
	p.mu.RUnlock()
	if ok {
		return ce
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if ce, ok = p.cities[city]; !ok {
		ce = &cityEnsemble{}
		p.cities[city] = ce
	}
	return ce
}

// Train fits a fresh ensemble for the city, bypassing the staleness check.
// At most one run may be in flight per city: a call arriving while one is
// active performs no fit and returns the standing state along with
// ErrTrainingInProgress.
func (p *Predictor) Train(ctx context.Context, city string) (*TrainingResult, error) {
	ce := p.ensemble(city)
	if !ce.trainMu.TryLock() {
		slog.Info("training already in flight, keeping standing state", "city", city)
		return ce.trainingResult(), ErrTrainingInProgress
	}
	defer ce.trainMu.Unlock()

	return p.train(ctx, city, ce)
}

func (p *Predictor) train(ctx context.Context, city string, ce *cityEnsemble) (*TrainingResult, error) {
	now := p.now()
	since := now.AddDate(0, 0, -p.opt.TrainingWindowDays)

	obs, err := p.store.QueryObservations(ctx, city, since)
	if err != nil {
		return nil, fmt.Errorf("unable to query observations for %s, %w", city, err)
	}
	if len(obs) < p.opt.MinRealObservations {
		slog.Info("history too thin, backfilling with synthetic observations",
			"city", city, "real_observations", len(obs))
		obs = synthetic.Generate(city, p.opt.TrainingWindowDays, now, p.newRand())
	}

	x, y, err := features.BuildSamples(obs)
	if err != nil {
		return nil, fmt.Errorf("unable to build training samples for %s, %w", city, err)
	}

	// temporal 80/20 split, no shuffling: train on the past, evaluate on the
	// future relative to the split point
	split := len(x) * 4 / 5
	lin := models.NewLinear()
	if err := lin.Fit(x[:split], y[:split]); err != nil {
		return nil, fmt.Errorf("unable to fit regression for %s, %w", city, err)
	}

	ens := models.Ensemble{Linear: lin}
	accuracy := defaultAccuracy
	if testX, testY := x[split:], y[split:]; len(testX) > 0 {
		predicted := make([]float64, len(testX))
		for i, v := range testX {
			predicted[i] = ens.Predict(v)
		}
		scores, err := NewScores(predicted, testY)
		if err != nil {
			return nil, fmt.Errorf("unable to evaluate ensemble for %s, %w", city, err)
		}
		accuracy = scores.Accuracy()
	}

	ce.mu.Lock()
	ce.linear = lin
	ce.lastTraining = now
	ce.accuracy = accuracy
	ce.sampleCount = len(x)
	ce.dataStart = obs[0].Timestamp
	ce.dataEnd = obs[len(obs)-1].Timestamp
	ce.mu.Unlock()

	slog.Info("training complete", "city", city, "accuracy", accuracy, "samples", len(x))
	return &TrainingResult{Accuracy: accuracy, SampleCount: len(x)}, nil
}

// ModelStatus reports the standing ensemble state for a city.
func (p *Predictor) ModelStatus(city string) ModelStatus {
	ce := p.ensemble(city)
	ce.mu.RLock()
	defer ce.mu.RUnlock()

	st := ModelStatus{
		City:         city,
		IsTrained:    ce.linear.Trained(),
		LastTraining: ce.lastTraining,
		Accuracy:     ce.accuracy,
	}
	if st.IsTrained {
		st.HoursSinceTraining = p.now().Sub(ce.lastTraining).Hours()
	}
	st.NeedsRetraining = !st.IsTrained || p.now().Sub(ce.lastTraining) > p.opt.StaleAfter
	return st
}

// GenerateForecast projects the city's ensemble forward hour by hour from the
// most recent observation, retraining first when the ensemble is absent or
// stale. Training failures degrade the forecast rather than abort it; the
// returned record is not persisted here.
func (p *Predictor) GenerateForecast(ctx context.Context, city string, lat, lng float64, hours int) (*ForecastRecord, error) {
	if hours < MinForecastHours || hours > MaxForecastHours {
		return nil, fmt.Errorf("%d is outside [%d, %d], %w",
			hours, MinForecastHours, MaxForecastHours, ErrHoursOutOfRange)
	}

	ce := p.ensemble(city)
	if st := p.ModelStatus(city); st.NeedsRetraining {
		if st.IsTrained {
			slog.Info("ensemble stale, retraining", "city", city,
				"hours_since_training", st.HoursSinceTraining)
		}
		if _, err := p.Train(ctx, city); err != nil {
			switch {
			case errors.Is(err, ErrTrainingInProgress):
				// another caller is refitting; serve from the standing state
			case errors.Is(err, features.ErrInsufficientData), errors.Is(err, models.ErrDegenerateFit):
				// fit-stage failures degrade the forecast rather than
				// abort it; the standing or untrained ensemble serves
				slog.Warn("retraining failed, proceeding with existing model state",
					"city", city, "error", err)
			default:
				return nil, err
			}
		}
	}

	base, err := p.store.MostRecentObservation(ctx, city)
	if errors.Is(err, ErrNoObservations) {
		base = airquality.FallbackObservation(city, p.now())
	} else if err != nil {
		return nil, fmt.Errorf("unable to load most recent observation for %s, %w", city, err)
	}

	ce.mu.RLock()
	ens := models.Ensemble{Linear: ce.linear}
	accuracy := ce.accuracy
	sampleCount := ce.sampleCount
	dataStart, dataEnd := ce.dataStart, ce.dataEnd
	ce.mu.RUnlock()

	if !ens.Trained() {
		slog.Warn("predicting without a fitted regression, using naive fallback", "city", city)
	}

	now := p.now()
	rng := p.newRand()
	state := features.FromObservation(base)

	// per-hour points must be produced in order: each step feeds its
	// predicted AQI back into the state the next step extends
	points := make([]PredictionPoint, 0, hours)
	for h := 1; h <= hours; h++ {
		ft := now.Add(time.Duration(h) * time.Hour)
		v := state.AtTime(ft)

		predicted := ens.Predict(v) + noise(rng, 5)
		aqi := int(math.Round(airquality.ClampAQI(predicted)))
		confidence := math.Max(0.5, 0.95-(float64(h)/float64(hours))*0.3)
		band := airquality.Categorize(float64(aqi))

		points = append(points, PredictionPoint{
			Timestamp: ft,
			AQI: AQIPrediction{
				Predicted:  aqi,
				Confidence: confidence,
				Category:   band.Category,
				Color:      band.Color,
			},
			Pollutants: PollutantPredictions{
				PM25: PollutantPrediction{
					Predicted:  math.Max(0, math.Round(float64(aqi)*synthetic.PM25Fraction+noise(rng, 2.5))),
					Confidence: confidence * 0.9,
				},
				PM10: PollutantPrediction{
					Predicted:  math.Max(0, math.Round(float64(aqi)*synthetic.PM10Fraction+noise(rng, 4))),
					Confidence: confidence * 0.9,
				},
				O3: PollutantPrediction{
					Predicted:  math.Max(0, math.Round(float64(aqi)*synthetic.O3Fraction+noise(rng, 7.5))),
					Confidence: confidence * 0.85,
				},
			},
			Weather: WeatherPrediction{
				Temperature: state[features.Temperature] + noise(rng, 1.5),
				Humidity:    math.Max(0, math.Min(100, state[features.Humidity]+noise(rng, 5))),
				WindSpeed:   math.Max(0, state[features.WindSpeed]+noise(rng, 2.5)),
				Pressure:    state[features.Pressure] + noise(rng, 2.5),
			},
		})

		state[features.AQI] = float64(aqi)
	}

	return &ForecastRecord{
		ID:             uuid.NewString(),
		Location:       Location{City: city, Coordinates: Coordinates{Lat: lat, Lng: lng}},
		PredictionDate: now,
		ForecastHours:  hours,
		Predictions:    points,
		Model: ModelInfo{
			Name:     ModelName,
			Version:  ModelVersion,
			Accuracy: accuracy,
			TrainingData: TrainingData{
				StartDate:   dataStart,
				EndDate:     dataEnd,
				SampleCount: sampleCount,
			},
		},
	}, nil
}

func noise(rng *rand.Rand, amplitude float64) float64 {
	return (rng.Float64() - 0.5) * 2 * amplitude
}
