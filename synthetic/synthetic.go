// Package synthetic generates plausible hourly air quality observations for
// cities with little or no recorded history. The generated series encodes the
// commute-hour and weekday pollution patterns observed in real traffic data so
// that a model trained on it still respects known diurnal behavior.
package synthetic

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/airsentinel/aqicast/airquality"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/br"
)

// Hourly adjustments applied on top of the city baseline.
const (
	morningRushBoost = 15.0
	eveningRushBoost = 20.0
	nightDrop        = 10.0
	workdayBoost     = 10.0
	weekendDrop      = 5.0
	noiseAmplitude   = 15.0
)

// Pollutant levels derived as fractions of the AQI value.
const (
	PM25Fraction = 0.3
	PM10Fraction = 0.5
	O3Fraction   = 1.2
)

var workCalendar = func() *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(br.Holidays...)
	return c
}()

// Generate produces one observation per hour covering days*24 hours ending at
// now, ordered ascending by timestamp. The series is deterministic under a
// fixed rand source. It never fails; an unknown city takes the default
// baseline.
func Generate(city string, days int, now time.Time, rng *rand.Rand) []airquality.Observation {
	base := airquality.BaselineAQI(city)
	n := days * 24

	obs := make([]airquality.Observation, 0, n)
	for i := n - 1; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * time.Hour)

		aqi := base + hourlyAdjustment(ts.Hour()) + weekdayAdjustment(ts)
		aqi += noise(rng, noiseAmplitude)
		aqi = math.Round(airquality.ClampAQI(aqi))

		pm25 := math.Max(0, math.Round(aqi*PM25Fraction+noise(rng, 5)))
		pm10 := math.Max(0, math.Round(aqi*PM10Fraction+noise(rng, 7.5)))
		o3 := math.Max(0, math.Round(aqi*O3Fraction+noise(rng, 10)))

		obs = append(obs, airquality.Observation{
			City:      city,
			Timestamp: ts,
			AQI:       aqi,
			Pollutants: airquality.Pollutants{
				PM25: airquality.Float(pm25),
				PM10: airquality.Float(pm10),
				O3:   airquality.Float(o3),
			},
			Weather: airquality.Weather{
				Temperature: airquality.Float(airquality.DefaultTemperature + noise(rng, 5)),
				Humidity:    airquality.Float(airquality.DefaultHumidity + noise(rng, 15)),
				WindSpeed:   airquality.Float(airquality.DefaultWindSpeed + noise(rng, 7.5)),
				Pressure:    airquality.Float(airquality.DefaultPressure + noise(rng, 10)),
			},
		})
	}
	return obs
}

func hourlyAdjustment(hour int) float64 {
	switch {
	case hour >= 7 && hour <= 9:
		return morningRushBoost
	case hour >= 17 && hour <= 19:
		return eveningRushBoost
	case hour <= 5:
		return -nightDrop
	}
	return 0
}

// weekdayAdjustment treats public holidays like weekends since commute
// traffic is what drives the term.
func weekdayAdjustment(t time.Time) float64 {
	if workCalendar.IsWorkday(t) {
		return workdayBoost
	}
	return -weekendDrop
}

func noise(rng *rand.Rand, amplitude float64) float64 {
	return (rng.Float64() - 0.5) * 2 * amplitude
}
