// Package units renders temperatures for display in either metric or
// imperial form. Provider payloads always carry Celsius; conversion
// happens at formatting time so stored data stays in one unit system.
package units

import (
	"fmt"
	"math"
)

// System selects the display unit system.
type System string

const (
	Metric   System = "metric"
	Imperial System = "imperial"
)

// ParseSystem validates a configured unit system string.
func ParseSystem(s string) (System, error) {
	switch System(s) {
	case Metric, Imperial:
		return System(s), nil
	default:
		return "", fmt.Errorf("unknown unit system %q (want %q or %q)", s, Metric, Imperial)
	}
}

// Formatter renders temperature pairs as short display strings.
type Formatter struct {
	system System
}

func NewFormatter(system System) Formatter {
	return Formatter{system: system}
}

// FormatHighLow renders a day's temperature extremes, e.g. "25°/16°".
// Values arrive in Celsius and are converted when the formatter is imperial.
func (f Formatter) FormatHighLow(high, low float64) string {
	if f.system == Imperial {
		high = toFahrenheit(high)
		low = toFahrenheit(low)
	}
	return fmt.Sprintf("%g°/%g°", math.Round(high), math.Round(low))
}

func toFahrenheit(celsius float64) float64 {
	return celsius*1.8 + 32
}
