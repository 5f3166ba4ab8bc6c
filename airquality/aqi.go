package airquality

import "math"

// Band is one row of the AQI category table.
type Band struct {
	Category string
	Color    string
}

// Category bands follow the standard AQI breakpoints. Consumers rely on the
// exact category and color strings, so they must not be reworded.
var bands = []struct {
	upper float64
	band  Band
}{
	{50, Band{"Good", "green"}},
	{100, Band{"Moderate", "yellow"}},
	{150, Band{"Unhealthy for Sensitive Groups", "orange"}},
	{200, Band{"Unhealthy", "red"}},
	{300, Band{"Very Unhealthy", "purple"}},
	{math.Inf(1), Band{"Hazardous", "maroon"}},
}

// Categorize maps an AQI value to its category band. It is total over all
// inputs; values below 0 fall in the first band and values above 500 in the
// last.
func Categorize(aqi float64) Band {
	for _, b := range bands {
		if aqi <= b.upper {
			return b.band
		}
	}
	return bands[len(bands)-1].band
}

// ClampAQI bounds a value to the valid AQI range.
func ClampAQI(v float64) float64 {
	return math.Max(MinAQI, math.Min(MaxAQI, v))
}
