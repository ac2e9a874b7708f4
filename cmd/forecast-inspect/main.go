// Command forecast-inspect decodes a saved provider payload and prints
// the rows both decode paths produce. Useful for checking how a payload
// renders without running the daemon.
//
// Usage:
//
//	go run ./cmd/forecast-inspect \
//	  -payload data/mock/forecast_sanfrancisco_7day.json \
//	  -units metric \
//	  -today 2024-06-20
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/stereovibe/sunshine-forecast/internal/forecast"
	"github.com/stereovibe/sunshine-forecast/internal/units"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	payloadPath := flag.String("payload", "", "path to a saved provider payload")
	unitsFlag := flag.String("units", "metric", "display units: metric or imperial")
	today := flag.String("today", "", "treat this date (YYYY-MM-DD) as day zero instead of the current day")
	flag.Parse()

	if *payloadPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -payload")
	}

	raw, err := os.ReadFile(*payloadPath)
	if err != nil {
		return err
	}

	system, err := units.ParseSystem(*unitsFlag)
	if err != nil {
		return err
	}

	// Pin day zero for reproducible dates.
	if *today != "" {
		day, err := time.Parse("2006-01-02", *today)
		if err != nil {
			return fmt.Errorf("invalid -today value: %w", err)
		}
		forecast.SetClock(clockwork.NewFakeClockAt(day))
		defer forecast.SetClock(nil)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	decoder := forecast.NewDecoder(forecast.ConditionTable{}, units.NewFormatter(system), printRegistry{}, logger)

	display, err := decoder.DisplayRows(raw)
	if err != nil {
		return fmt.Errorf("display decode: %w", err)
	}

	fmt.Printf("Display rows (%d):\n", len(display))
	for i, row := range display {
		fmt.Printf("  [%d] %s\n", i, row.Summary())
	}

	storage, err := decoder.StorageRows(context.Background(), raw)
	if err != nil {
		return fmt.Errorf("storage decode: %w", err)
	}

	fmt.Printf("\nStorage rows (%d):\n", len(storage))
	for i, row := range storage {
		fmt.Printf("  [%d] %s cond=%d high=%.1f low=%.1f humidity=%d%% pressure=%.1f wind=%.1f m/s @ %.0f\n",
			i, row.Date.Format("2006-01-02"), row.ConditionID, row.MaxTemp, row.MinTemp,
			row.Humidity, row.Pressure, row.WindSpeed, row.WindDirection)
	}

	return nil
}

// printRegistry echoes the resolved coordinate instead of persisting it.
type printRegistry struct{}

func (printRegistry) RecordLocation(_ context.Context, lat, lon float64) error {
	fmt.Printf("\nResolved coordinate: %.4f, %.4f\n", lat, lon)
	return nil
}
