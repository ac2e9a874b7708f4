package forecast

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DisplayRow is one day of forecast ready for presentation. All weather
// detail has already been collapsed into formatted text.
type DisplayRow struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	HighLow     string    `json:"high_low"`
}

// Summary renders the single-line form used by list views,
// e.g. "Fri Jun 20 - Clear - 25°/16°".
func (r DisplayRow) Summary() string {
	return r.Date.Format("Mon Jan 2") + " - " + r.Description + " - " + r.HighLow
}

// StorageRow is one day of forecast with every numeric field preserved,
// ready for persistence. No display formatting is applied.
type StorageRow struct {
	Date          time.Time `json:"date"`
	Humidity      int       `json:"humidity"`
	Pressure      float64   `json:"pressure"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDirection float64   `json:"wind_direction"`
	MaxTemp       float64   `json:"max_temp"`
	MinTemp       float64   `json:"min_temp"`
	ConditionID   int       `json:"condition_id"`
}

// Coordinate is a geographic point reported by the provider for the
// resolved location.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Provider status codes carried in the document "cod" field.
const (
	statusOK       = 200
	statusNotFound = 404
)

// statusCode tolerates the provider's habit of serializing "cod" as
// either a JSON number or a quoted string.
type statusCode int

func (s *statusCode) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fmt.Errorf("status code %s: %w", data, err)
	}
	*s = statusCode(n)
	return nil
}

// document mirrors the slice of the provider payload this package reads.
// Pointer fields distinguish absent keys from zero values.
type document struct {
	Cod  *statusCode `json:"cod"`
	City *cityInfo   `json:"city"`
	List []dayEntry  `json:"list"`
}

type cityInfo struct {
	Name  string     `json:"name"`
	Coord *coordInfo `json:"coord"`
}

type coordInfo struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type dayEntry struct {
	Pressure *float64    `json:"pressure"`
	Humidity *int        `json:"humidity"`
	Speed    *float64    `json:"speed"`
	Deg      *float64    `json:"deg"`
	Temp     *tempRange  `json:"temp"`
	Weather  []condition `json:"weather"`
}

type tempRange struct {
	Max *float64 `json:"max"`
	Min *float64 `json:"min"`
}

type condition struct {
	ID *int `json:"id"`
}

func parseDocument(raw []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return document{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return doc, nil
}

// status returns the document's status code, or statusOK when the
// provider omitted one.
func (d document) status() int {
	if d.Cod == nil {
		return statusOK
	}
	return int(*d.Cod)
}

// coordinate extracts the resolved city coordinate. Every level of
// nesting is required once the storage path reaches for it.
func (d document) coordinate() (Coordinate, error) {
	if d.City == nil || d.City.Coord == nil {
		return Coordinate{}, fmt.Errorf("%w: missing %q", ErrMalformedPayload, "city.coord")
	}
	lat, err := requiredFloat(d.City.Coord.Lat, "city.coord.lat")
	if err != nil {
		return Coordinate{}, err
	}
	lon, err := requiredFloat(d.City.Coord.Lon, "city.coord.lon")
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// conditionID returns the leading weather condition code for the day.
func (e dayEntry) conditionID() (int, error) {
	if len(e.Weather) == 0 {
		return 0, fmt.Errorf("%w: missing %q", ErrMalformedPayload, "weather")
	}
	return requiredInt(e.Weather[0].ID, "weather.id")
}

// temperatures returns the day's high and low in that order.
func (e dayEntry) temperatures() (float64, float64, error) {
	if e.Temp == nil {
		return 0, 0, fmt.Errorf("%w: missing %q", ErrMalformedPayload, "temp")
	}
	high, err := requiredFloat(e.Temp.Max, "temp.max")
	if err != nil {
		return 0, 0, err
	}
	low, err := requiredFloat(e.Temp.Min, "temp.min")
	if err != nil {
		return 0, 0, err
	}
	return high, low, nil
}

func requiredFloat(v *float64, key string) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing %q", ErrMalformedPayload, key)
	}
	return *v, nil
}

func requiredInt(v *int, key string) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing %q", ErrMalformedPayload, key)
	}
	return *v, nil
}
