package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stereovibe/sunshine-forecast/internal/forecast"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "forecasts.db") + "?_fk=1"
	db, err := Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := New(db, discardLogger())
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func sampleRows(n int) []forecast.StorageRow {
	rows := make([]forecast.StorageRow, n)
	for i := range rows {
		rows[i] = forecast.StorageRow{
			Date:          time.Date(2024, 6, 20+i, 0, 0, 0, 0, time.UTC),
			Humidity:      72 - i,
			Pressure:      1013.2 + float64(i),
			WindSpeed:     3.6,
			WindDirection: 255,
			MaxTemp:       25.0 - float64(i),
			MinTemp:       15.0 - float64(i),
			ConditionID:   800,
		}
	}
	return rows
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.EnsureSchema(context.Background()))
}

func TestSaveAndListForecasts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	rows := sampleRows(3)

	require.NoError(t, s.SaveForecasts(ctx, "London,uk", rows))

	got, err := s.ListForecasts(ctx, "London,uk")
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, row := range got {
		assert.WithinDuration(t, rows[i].Date, row.Date, time.Second, "day %d date", i)
		assert.Equal(t, rows[i].Humidity, row.Humidity, "day %d humidity", i)
		assert.InDelta(t, rows[i].Pressure, row.Pressure, 0.001, "day %d pressure", i)
		assert.InDelta(t, rows[i].WindSpeed, row.WindSpeed, 0.001, "day %d wind speed", i)
		assert.InDelta(t, rows[i].WindDirection, row.WindDirection, 0.001, "day %d wind direction", i)
		assert.InDelta(t, rows[i].MaxTemp, row.MaxTemp, 0.001, "day %d max temp", i)
		assert.InDelta(t, rows[i].MinTemp, row.MinTemp, 0.001, "day %d min temp", i)
		assert.Equal(t, rows[i].ConditionID, row.ConditionID, "day %d condition", i)
	}
}

func TestSaveForecasts_ReplacesPrevious(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveForecasts(ctx, "London,uk", sampleRows(7)))

	replacement := sampleRows(2)
	replacement[0].Humidity = 99
	require.NoError(t, s.SaveForecasts(ctx, "London,uk", replacement))

	got, err := s.ListForecasts(ctx, "London,uk")
	require.NoError(t, err)
	require.Len(t, got, 2, "old rows must be gone")
	assert.Equal(t, 99, got[0].Humidity)
}

func TestSaveForecasts_EmptyClearsLocation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveForecasts(ctx, "London,uk", sampleRows(3)))
	require.NoError(t, s.SaveForecasts(ctx, "London,uk", nil))

	got, err := s.ListForecasts(ctx, "London,uk")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveForecasts_LocationsAreIsolated(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveForecasts(ctx, "London,uk", sampleRows(3)))
	require.NoError(t, s.SaveForecasts(ctx, "Oslo,no", sampleRows(5)))

	london, err := s.ListForecasts(ctx, "London,uk")
	require.NoError(t, err)
	assert.Len(t, london, 3)

	oslo, err := s.ListForecasts(ctx, "Oslo,no")
	require.NoError(t, err)
	assert.Len(t, oslo, 5)
}

func TestListForecasts_UnknownLocation(t *testing.T) {
	s := testStore(t)

	got, err := s.ListForecasts(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordLocation_UpsertBumpsSeenCount(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordLocation(ctx, 51.5074, -0.1278))
	require.NoError(t, s.RecordLocation(ctx, 51.5074, -0.1278))

	var count int
	require.NoError(t, s.db.GetContext(ctx, &count,
		s.db.Rebind(`SELECT seen_count FROM locations WHERE lat = ? AND lon = ?`), 51.5074, -0.1278))
	assert.Equal(t, 2, count)
}

func TestRecordLocation_DistinctCoordinates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordLocation(ctx, 51.5074, -0.1278))
	require.NoError(t, s.RecordLocation(ctx, 59.9139, 10.7522))

	var count int
	require.NoError(t, s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM locations`))
	assert.Equal(t, 2, count)
}

func TestLastLocation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	t.Run("empty registry", func(t *testing.T) {
		_, _, err := s.LastLocation(ctx)
		require.Error(t, err)
		var notFound NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("latest coordinate wins", func(t *testing.T) {
		require.NoError(t, s.RecordLocation(ctx, 51.5074, -0.1278))
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, s.RecordLocation(ctx, 59.9139, 10.7522))

		coord, seen, err := s.LastLocation(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 59.9139, coord.Lat, 0.0001)
		assert.InDelta(t, 10.7522, coord.Lon, 0.0001)
		assert.WithinDuration(t, time.Now().UTC(), seen, time.Minute)
	})
}
