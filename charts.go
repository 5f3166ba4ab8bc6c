package aqicast

import (
	"fmt"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineForecast generates an echart line chart for a forecast record plotting
// the predicted AQI along with upper and lower bounds widened by the per-hour
// confidence.
func LineForecast(rec *ForecastRecord) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: fmt.Sprintf("AQI Forecast - %s", rec.Location.City),
			},
		),
	)

	t := make([]time.Time, 0, len(rec.Predictions))
	lineDataForecast := make([]opts.LineData, 0, len(rec.Predictions))
	lineDataUpper := make([]opts.LineData, 0, len(rec.Predictions))
	lineDataLower := make([]opts.LineData, 0, len(rec.Predictions))

	for _, p := range rec.Predictions {
		t = append(t, p.Timestamp)
		predicted := float64(p.AQI.Predicted)
		spread := predicted * (1 - p.AQI.Confidence)
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: predicted})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: predicted + spread})
		lineDataLower = append(lineDataLower, opts.LineData{Value: predicted - spread})
	}

	line.SetXAxis(t).
		AddSeries("Forecast", lineDataForecast).
		AddSeries("Upper", lineDataUpper).
		AddSeries("Lower", lineDataLower)
	return line
}

// LinePollutants generates an echart line chart of the projected pollutant
// concentrations of a forecast record.
func LinePollutants(rec *ForecastRecord) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Pollutant Forecast",
			},
		),
	)

	t := make([]time.Time, 0, len(rec.Predictions))
	pm25 := make([]opts.LineData, 0, len(rec.Predictions))
	pm10 := make([]opts.LineData, 0, len(rec.Predictions))
	o3 := make([]opts.LineData, 0, len(rec.Predictions))

	for _, p := range rec.Predictions {
		t = append(t, p.Timestamp)
		pm25 = append(pm25, opts.LineData{Value: p.Pollutants.PM25.Predicted})
		pm10 = append(pm10, opts.LineData{Value: p.Pollutants.PM10.Predicted})
		o3 = append(o3, opts.LineData{Value: p.Pollutants.O3.Predicted})
	}

	line.SetXAxis(t).
		AddSeries("PM2.5", pm25).
		AddSeries("PM10", pm10).
		AddSeries("O3", o3)
	return line
}

// PlotForecast renders a forecast record to an HTML page at the given path.
func PlotForecast(rec *ForecastRecord, path string) error {
	page := components.NewPage()
	page.AddCharts(
		LineForecast(rec),
		LinePollutants(rec),
	)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create chart file, %w", err)
	}
	defer f.Close()
	return page.Render(f)
}
