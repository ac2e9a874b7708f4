// Package store persists decoded forecasts and resolved coordinates in a
// relational database. Queries are written once with ? placeholders and
// rebound per driver, so the same store runs on sqlite3 and postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	// Drivers for the supported STORE_DRIVER values.
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/stereovibe/sunshine-forecast/internal/forecast"
)

// NotFoundError reports a lookup that matched nothing.
type NotFoundError struct {
	What string
}

func (e NotFoundError) Error() string {
	return e.What + " not found"
}

// Open connects to the forecast database and verifies the connection.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == "postgres" {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	return db, nil
}

// Store is the relational forecast store. It implements
// refresh.ForecastStore and forecast.LocationRegistry.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func New(db *sqlx.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// One statement per entry; lib/pq does not run multi-statement Exec.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS forecasts (
		location       TEXT NOT NULL,
		day_index      INTEGER NOT NULL,
		forecast_date  TIMESTAMP NOT NULL,
		humidity       INTEGER NOT NULL,
		pressure       DOUBLE PRECISION NOT NULL,
		wind_speed     DOUBLE PRECISION NOT NULL,
		wind_direction DOUBLE PRECISION NOT NULL,
		max_temp       DOUBLE PRECISION NOT NULL,
		min_temp       DOUBLE PRECISION NOT NULL,
		condition_id   INTEGER NOT NULL,
		updated_at     TIMESTAMP NOT NULL,
		PRIMARY KEY (location, day_index)
	)`,
	`CREATE TABLE IF NOT EXISTS locations (
		lat        DOUBLE PRECISION NOT NULL,
		lon        DOUBLE PRECISION NOT NULL,
		seen_count INTEGER NOT NULL,
		last_seen  TIMESTAMP NOT NULL,
		PRIMARY KEY (lat, lon)
	)`,
}

// EnsureSchema creates the forecast tables when missing. Safe to run on
// every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

type forecastRecord struct {
	Location      string    `db:"location"`
	DayIndex      int       `db:"day_index"`
	ForecastDate  time.Time `db:"forecast_date"`
	Humidity      int       `db:"humidity"`
	Pressure      float64   `db:"pressure"`
	WindSpeed     float64   `db:"wind_speed"`
	WindDirection float64   `db:"wind_direction"`
	MaxTemp       float64   `db:"max_temp"`
	MinTemp       float64   `db:"min_temp"`
	ConditionID   int       `db:"condition_id"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// SaveForecasts replaces the stored forecast for a location. Old and new
// rows swap in one transaction so readers never see a mix.
func (s *Store) SaveForecasts(ctx context.Context, location string, rows []forecast.StorageRow) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM forecasts WHERE location = ?`), location); err != nil {
		return fmt.Errorf("clear forecasts: %w", err)
	}

	insert := tx.Rebind(`INSERT INTO forecasts
		(location, day_index, forecast_date, humidity, pressure, wind_speed, wind_direction, max_temp, min_temp, condition_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	now := time.Now().UTC()
	for i, row := range rows {
		if _, err := tx.ExecContext(ctx, insert,
			location, i, row.Date, row.Humidity, row.Pressure,
			row.WindSpeed, row.WindDirection, row.MaxTemp, row.MinTemp,
			row.ConditionID, now); err != nil {
			return fmt.Errorf("insert forecast day %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.Debug("forecasts saved", "location", location, "rows", len(rows))
	return nil
}

// ListForecasts returns the stored forecast for a location in day order.
func (s *Store) ListForecasts(ctx context.Context, location string) ([]forecast.StorageRow, error) {
	query := s.db.Rebind(`SELECT location, day_index, forecast_date, humidity, pressure,
		wind_speed, wind_direction, max_temp, min_temp, condition_id, updated_at
		FROM forecasts WHERE location = ? ORDER BY day_index`)

	var records []forecastRecord
	if err := s.db.SelectContext(ctx, &records, query, location); err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}

	rows := make([]forecast.StorageRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, forecast.StorageRow{
			Date:          rec.ForecastDate,
			Humidity:      rec.Humidity,
			Pressure:      rec.Pressure,
			WindSpeed:     rec.WindSpeed,
			WindDirection: rec.WindDirection,
			MaxTemp:       rec.MaxTemp,
			MinTemp:       rec.MinTemp,
			ConditionID:   rec.ConditionID,
		})
	}
	return rows, nil
}

// RecordLocation upserts a resolved coordinate, bumping its seen count.
func (s *Store) RecordLocation(ctx context.Context, lat, lon float64) error {
	query := s.db.Rebind(`INSERT INTO locations (lat, lon, seen_count, last_seen) VALUES (?, ?, 1, ?)
		ON CONFLICT (lat, lon) DO UPDATE SET
			seen_count = locations.seen_count + 1,
			last_seen  = excluded.last_seen`)
	if _, err := s.db.ExecContext(ctx, query, lat, lon, time.Now().UTC()); err != nil {
		return fmt.Errorf("record location: %w", err)
	}
	return nil
}

// LastLocation returns the most recently recorded coordinate and when it
// was last seen.
func (s *Store) LastLocation(ctx context.Context) (forecast.Coordinate, time.Time, error) {
	var rec struct {
		Lat      float64   `db:"lat"`
		Lon      float64   `db:"lon"`
		LastSeen time.Time `db:"last_seen"`
	}
	query := `SELECT lat, lon, last_seen FROM locations ORDER BY last_seen DESC LIMIT 1`
	if err := s.db.GetContext(ctx, &rec, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return forecast.Coordinate{}, time.Time{}, NotFoundError{What: "location"}
		}
		return forecast.Coordinate{}, time.Time{}, fmt.Errorf("last location: %w", err)
	}
	return forecast.Coordinate{Lat: rec.Lat, Lon: rec.Lon}, rec.LastSeen, nil
}
