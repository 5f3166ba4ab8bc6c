// Package store persists observations and forecast records in SQLite. It is
// the concrete historical data collaborator behind the aqicast.Store
// interface: observation history feeds training, forecast records are
// superseded by each generation cycle and served until they go stale.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/airsentinel/aqicast"
	"github.com/airsentinel/aqicast/airquality"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	city        TEXT    NOT NULL,
	ts          INTEGER NOT NULL,
	aqi         REAL    NOT NULL,
	pm25        REAL,
	pm10        REAL,
	o3          REAL,
	no2         REAL,
	so2         REAL,
	co          REAL,
	temperature REAL,
	humidity    REAL,
	wind_speed  REAL,
	pressure    REAL,
	PRIMARY KEY (city, ts)
);
CREATE INDEX IF NOT EXISTS idx_observations_city_ts ON observations (city, ts);

CREATE TABLE IF NOT EXISTS forecasts (
	id              TEXT    PRIMARY KEY,
	city            TEXT    NOT NULL,
	prediction_date INTEGER NOT NULL,
	forecast_hours  INTEGER NOT NULL,
	payload         BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forecasts_city_date ON forecasts (city, prediction_date);
`

// SQLite is a file-backed store. A single instance is safe for concurrent
// use; database/sql serializes access to the underlying connection pool.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database at %s, %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to initialize schema, %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// InsertObservation records one measured or synthetic sample. Observations
// are immutable; inserting the same city/timestamp twice is an error.
func (s *SQLite) InsertObservation(ctx context.Context, o airquality.Observation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO observations
			(city, ts, aqi, pm25, pm10, o3, no2, so2, co, temperature, humidity, wind_speed, pressure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.City, o.Timestamp.Unix(), o.AQI,
		nullable(o.Pollutants.PM25), nullable(o.Pollutants.PM10), nullable(o.Pollutants.O3),
		nullable(o.Pollutants.NO2), nullable(o.Pollutants.SO2), nullable(o.Pollutants.CO),
		nullable(o.Weather.Temperature), nullable(o.Weather.Humidity),
		nullable(o.Weather.WindSpeed), nullable(o.Weather.Pressure),
	)
	if err != nil {
		return fmt.Errorf("unable to insert observation for %s, %w", o.City, err)
	}
	return nil
}

// QueryObservations returns a city's observations since the given time,
// ordered ascending by timestamp.
func (s *SQLite) QueryObservations(ctx context.Context, city string, since time.Time) ([]airquality.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT city, ts, aqi, pm25, pm10, o3, no2, so2, co, temperature, humidity, wind_speed, pressure
		FROM observations
		WHERE city = ? AND ts >= ?
		ORDER BY ts ASC`,
		city, since.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to query observations for %s, %w", city, err)
	}
	defer rows.Close()

	var obs []airquality.Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// MostRecentObservation returns the latest observation for a city or
// aqicast.ErrNoObservations when the city has none.
func (s *SQLite) MostRecentObservation(ctx context.Context, city string) (airquality.Observation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT city, ts, aqi, pm25, pm10, o3, no2, so2, co, temperature, humidity, wind_speed, pressure
		FROM observations
		WHERE city = ?
		ORDER BY ts DESC
		LIMIT 1`,
		city,
	)

	o, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return airquality.Observation{}, fmt.Errorf("%s, %w", city, aqicast.ErrNoObservations)
	}
	return o, err
}

// SaveForecast persists a forecast record, assigning an id when absent. The
// record itself travels as a JSON payload so the persisted shape matches what
// consumers read.
func (s *SQLite) SaveForecast(ctx context.Context, rec *aqicast.ForecastRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("unable to encode forecast record, %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO forecasts (id, city, prediction_date, forecast_hours, payload)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Location.City, rec.PredictionDate.Unix(), rec.ForecastHours, payload,
	)
	if err != nil {
		return fmt.Errorf("unable to save forecast for %s, %w", rec.Location.City, err)
	}
	return nil
}

// LatestForecast returns the most recently generated record for a city or
// aqicast.ErrNoForecast when none has been persisted.
func (s *SQLite) LatestForecast(ctx context.Context, city string) (*aqicast.ForecastRecord, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT payload
		FROM forecasts
		WHERE city = ?
		ORDER BY prediction_date DESC
		LIMIT 1`,
		city,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s, %w", city, aqicast.ErrNoForecast)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load latest forecast for %s, %w", city, err)
	}

	var rec aqicast.ForecastRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unable to decode forecast record, %w", err)
	}
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObservation(row rowScanner) (airquality.Observation, error) {
	var (
		o   airquality.Observation
		ts  int64
		opt [10]sql.NullFloat64
	)
	if err := row.Scan(
		&o.City, &ts, &o.AQI,
		&opt[0], &opt[1], &opt[2], &opt[3], &opt[4], &opt[5],
		&opt[6], &opt[7], &opt[8], &opt[9],
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return o, err
		}
		return o, fmt.Errorf("unable to scan observation, %w", err)
	}

	o.Timestamp = time.Unix(ts, 0).UTC()
	o.Pollutants = airquality.Pollutants{
		PM25: optional(opt[0]),
		PM10: optional(opt[1]),
		O3:   optional(opt[2]),
		NO2:  optional(opt[3]),
		SO2:  optional(opt[4]),
		CO:   optional(opt[5]),
	}
	o.Weather = airquality.Weather{
		Temperature: optional(opt[6]),
		Humidity:    optional(opt[7]),
		WindSpeed:   optional(opt[8]),
		Pressure:    optional(opt[9]),
	}
	return o, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func optional(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
