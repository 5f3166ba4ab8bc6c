// Command aqicast trains the forecasting ensemble against the observation
// store and emits an hour-by-hour air quality forecast as JSON, optionally
// rendering it to an HTML chart.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/airsentinel/aqicast"
	"github.com/airsentinel/aqicast/config"
	"github.com/airsentinel/aqicast/store"
	"github.com/airsentinel/aqicast/synthetic"
	"github.com/goccy/go-json"
	"github.com/pkg/profile"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file; defaults apply when empty")
	city := flag.String("city", "São Paulo", "city to forecast")
	lat := flag.Float64("lat", -23.5505, "forecast latitude")
	lng := flag.Float64("lng", -46.6333, "forecast longitude")
	hours := flag.Int("hours", 0, "forecast horizon in hours, overrides config when set")
	seedDays := flag.Int("seed-history", 0, "insert this many days of synthetic observations before running")
	trainOnly := flag.Bool("train", false, "force a retrain and print the result without forecasting")
	status := flag.Bool("status", false, "print the model status and exit")
	force := flag.Bool("force", false, "generate a fresh forecast even if a recent one is persisted")
	cpuProfile := flag.Bool("cpuprofile", false, "write a CPU profile to the current directory")
	flag.Parse()

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	if err := run(*cfgPath, *city, *lat, *lng, *hours, *seedDays, *trainOnly, *status, *force); err != nil {
		slog.Error("aqicast failed", "error", err)
		os.Exit(1)
	}
}

func run(cfgPath, city string, lat, lng float64, hours, seedDays int, trainOnly, status, force bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	slog.SetLogLoggerLevel(logLevel(cfg.Logging.Level))

	s, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	opt := &aqicast.Options{
		TrainingWindowDays:  cfg.Training.WindowDays,
		MinRealObservations: cfg.Training.MinRealObservations,
		StaleAfter:          cfg.Training.StaleAfter,
	}
	if cfg.Training.Seed != 0 {
		opt.Rand = rand.New(rand.NewPCG(cfg.Training.Seed, cfg.Training.Seed))
	}

	predictor, err := aqicast.New(s, opt)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if seedDays > 0 {
		if err := seedHistory(ctx, s, city, seedDays, opt.Rand); err != nil {
			return err
		}
	}

	switch {
	case status:
		return printJSON(predictor.ModelStatus(city))
	case trainOnly:
		res, err := predictor.Train(ctx, city)
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	if !force {
		if rec, err := s.LatestForecast(ctx, city); err == nil && !rec.Stale(time.Now()) {
			slog.Info("serving persisted forecast", "city", city, "generated", rec.PredictionDate)
			return printJSON(rec)
		}
	}

	if hours == 0 {
		hours = cfg.Forecast.Hours
	}
	rec, err := predictor.GenerateForecast(ctx, city, lat, lng, hours)
	if err != nil {
		return err
	}

	// computing and persisting are separate outcomes: a failed save still
	// leaves the caller with a usable forecast
	if err := s.SaveForecast(ctx, rec); err != nil {
		slog.Error("forecast computed but not persisted", "city", city, "error", err)
	}

	if cfg.Forecast.ChartPath != "" {
		if err := aqicast.PlotForecast(rec, cfg.Forecast.ChartPath); err != nil {
			slog.Error("unable to render forecast chart", "path", cfg.Forecast.ChartPath, "error", err)
		} else {
			slog.Info("forecast chart written", "path", cfg.Forecast.ChartPath)
		}
	}

	return printJSON(rec)
}

func seedHistory(ctx context.Context, s *store.SQLite, city string, days int, rng *rand.Rand) error {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed))
	}
	obs := synthetic.Generate(city, days, time.Now(), rng)
	for _, o := range obs {
		if err := s.InsertObservation(ctx, o); err != nil {
			return fmt.Errorf("unable to seed history, %w", err)
		}
	}
	slog.Info("seeded synthetic history", "city", city, "observations", len(obs))
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
