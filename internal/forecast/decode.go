package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrMalformedPayload marks documents that cannot be decoded: invalid
	// JSON, or a required key missing at the point it is read.
	ErrMalformedPayload = errors.New("malformed forecast payload")

	// ErrLocationNotFound is the storage-path error for a provider
	// not-found status.
	ErrLocationNotFound = errors.New("location not found")

	// ErrUpstreamFailure is the storage-path error for any other non-OK
	// provider status.
	ErrUpstreamFailure = errors.New("upstream provider failure")
)

// Decoder converts raw provider documents into display or storage rows.
// The condition describer and high/low formatter shape the display path;
// the registry, which may be nil, receives resolved coordinates on the
// storage path.
type Decoder struct {
	conditions ConditionDescriber
	temps      HighLowFormatter
	registry   LocationRegistry
	logger     *slog.Logger
}

func NewDecoder(conditions ConditionDescriber, temps HighLowFormatter, registry LocationRegistry, logger *slog.Logger) *Decoder {
	return &Decoder{
		conditions: conditions,
		temps:      temps,
		registry:   registry,
		logger:     logger,
	}
}

// DisplayRows decodes a document into presentation rows, one per list
// entry in order. A non-OK provider status yields an empty result rather
// than an error: the display path does not distinguish "no city" from
// "provider down", it simply has nothing to show.
func (d *Decoder) DisplayRows(raw []byte) ([]DisplayRow, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, err
	}
	if doc.status() != statusOK {
		return make([]DisplayRow, 0), nil
	}
	if doc.List == nil {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedPayload, "list")
	}

	today := startOfToday()
	rows := make([]DisplayRow, 0, len(doc.List))
	for i, day := range doc.List {
		id, err := day.conditionID()
		if err != nil {
			return nil, fmt.Errorf("list entry %d: %w", i, err)
		}
		high, low, err := day.temperatures()
		if err != nil {
			return nil, fmt.Errorf("list entry %d: %w", i, err)
		}
		rows = append(rows, DisplayRow{
			Date:        today.AddDate(0, 0, i),
			Description: d.conditions.DescribeCondition(id),
			HighLow:     d.temps.FormatHighLow(high, low),
		})
	}
	return rows, nil
}

// StorageRows decodes a document into persistence rows, one per list
// entry in order. Unlike the display path it keeps raw numeric values,
// reports non-OK provider statuses as distinguishable errors, and hands
// the resolved coordinate to the registry before touching the list.
func (d *Decoder) StorageRows(ctx context.Context, raw []byte) ([]StorageRow, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, err
	}
	switch status := doc.status(); status {
	case statusOK:
	case statusNotFound:
		return nil, fmt.Errorf("provider status %d: %w", status, ErrLocationNotFound)
	default:
		return nil, fmt.Errorf("provider status %d: %w", status, ErrUpstreamFailure)
	}

	coord, err := doc.coordinate()
	if err != nil {
		return nil, err
	}
	d.recordLocation(ctx, coord)

	if doc.List == nil {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedPayload, "list")
	}

	today := startOfToday()
	rows := make([]StorageRow, 0, len(doc.List))
	for i, day := range doc.List {
		row, err := storageRow(day)
		if err != nil {
			return nil, fmt.Errorf("list entry %d: %w", i, err)
		}
		row.Date = today.AddDate(0, 0, i)
		rows = append(rows, row)
	}
	return rows, nil
}

func storageRow(day dayEntry) (StorageRow, error) {
	pressure, err := requiredFloat(day.Pressure, "pressure")
	if err != nil {
		return StorageRow{}, err
	}
	humidity, err := requiredInt(day.Humidity, "humidity")
	if err != nil {
		return StorageRow{}, err
	}
	speed, err := requiredFloat(day.Speed, "speed")
	if err != nil {
		return StorageRow{}, err
	}
	deg, err := requiredFloat(day.Deg, "deg")
	if err != nil {
		return StorageRow{}, err
	}
	high, low, err := day.temperatures()
	if err != nil {
		return StorageRow{}, err
	}
	id, err := day.conditionID()
	if err != nil {
		return StorageRow{}, err
	}
	return StorageRow{
		Humidity:      humidity,
		Pressure:      pressure,
		WindSpeed:     speed,
		WindDirection: deg,
		MaxTemp:       high,
		MinTemp:       low,
		ConditionID:   id,
	}, nil
}

// recordLocation forwards the resolved coordinate to the registry.
// Registry failures degrade gracefully: the sync continues without the
// coordinate on record.
func (d *Decoder) recordLocation(ctx context.Context, coord Coordinate) {
	if d.registry == nil {
		return
	}
	if err := d.registry.RecordLocation(ctx, coord.Lat, coord.Lon); err != nil {
		d.logger.Warn("failed to record location",
			"lat", coord.Lat,
			"lon", coord.Lon,
			"error", err)
	}
}

// startOfToday anchors positional dates: the clock's current day
// truncated to midnight, captured once per decode call so every entry
// shares the same base.
func startOfToday() time.Time {
	now := clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
