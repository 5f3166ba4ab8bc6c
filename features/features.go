// Package features converts ordered observation history into the fixed-layout
// supervised samples the ensemble trains and predicts on.
package features

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/airsentinel/aqicast/airquality"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInsufficientData = errors.New("insufficient samples for training")
	ErrNonMonotonic     = errors.New("observations are not ordered ascending by timestamp")
)

// MinSamples is the fewest feature/target pairs a training run can proceed
// with.
const MinSamples = 10

// Component indices of a feature vector.
const (
	AQI = iota
	PM25
	PM10
	O3
	Temperature
	Humidity
	WindSpeed
	Pressure
	HourOfDay
	DayOfWeek
	HourSin
	HourCos

	VectorLen
)

// Vector is one fully populated feature sample. Missing observation fields
// are substituted with neutral defaults so every component is always set.
type Vector [VectorLen]float64

// FromObservation builds a feature vector from a single observation,
// including its temporal context.
func FromObservation(o airquality.Observation) Vector {
	v := Vector{
		AQI:         o.AQI,
		PM25:        o.PM25(),
		PM10:        o.PM10(),
		O3:          o.O3(),
		Temperature: o.Temperature(),
		Humidity:    o.Humidity(),
		WindSpeed:   o.WindSpeed(),
		Pressure:    o.Pressure(),
	}
	return v.AtTime(o.Timestamp)
}

// AtTime returns a copy of the vector with its temporal components set for t.
// The non-temporal components carry over unchanged, which is what the
// autoregressive forecast loop relies on.
func (v Vector) AtTime(t time.Time) Vector {
	hour := float64(t.Hour())
	v[HourOfDay] = hour
	v[DayOfWeek] = float64(t.Weekday())
	v[HourSin] = math.Sin(2 * math.Pi * hour / 24)
	v[HourCos] = math.Cos(2 * math.Pi * hour / 24)
	return v
}

// BuildSamples turns an ascending observation sequence into feature vectors
// with next-step AQI targets. It produces len(obs)-1 samples since the last
// observation has no successor to act as its label.
func BuildSamples(obs []airquality.Observation) ([]Vector, []float64, error) {
	for i := 1; i < len(obs); i++ {
		if !obs[i].Timestamp.After(obs[i-1].Timestamp) {
			return nil, nil, fmt.Errorf("observation %d, %w", i, ErrNonMonotonic)
		}
	}

	n := len(obs) - 1
	if n < MinSamples {
		return nil, nil, fmt.Errorf("got %d samples but need at least %d, %w", max(n, 0), MinSamples, ErrInsufficientData)
	}

	x := make([]Vector, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x = append(x, FromObservation(obs[i]))
		y = append(y, obs[i+1].AQI)
	}
	return x, y, nil
}

// Matrix lays the vectors out as a gonum design matrix, one sample per row.
func Matrix(x []Vector) *mat.Dense {
	data := make([]float64, 0, len(x)*VectorLen)
	for _, v := range x {
		data = append(data, v[:]...)
	}
	return mat.NewDense(len(x), VectorLen, data)
}
