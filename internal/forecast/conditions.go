package forecast

import "fmt"

// conditionRange maps an inclusive span of OpenWeatherMap condition codes
// to a display phrase. Ranges follow the provider's code groups: 2xx
// thunderstorm, 3xx drizzle, 5xx rain, 6xx snow, 7xx atmosphere, 800
// clear, 80x clouds.
type conditionRange struct {
	lo, hi int
	phrase string
}

var conditionRanges = []conditionRange{
	{200, 232, "Storm"},
	{300, 321, "Light Rain"},
	{500, 504, "Rain"},
	{511, 511, "Snow"}, // freezing rain
	{520, 531, "Rain"},
	{600, 622, "Snow"},
	{701, 761, "Fog"},
	{771, 771, "Storm"}, // squalls
	{781, 781, "Storm"}, // tornado
	{800, 800, "Clear"},
	{801, 801, "Mostly Clear"},
	{802, 804, "Cloudy"},
}

// ConditionTable is the stock ConditionDescriber backed by the provider's
// published condition code groups.
type ConditionTable struct{}

// DescribeCondition returns the phrase for a condition code, or
// "Unknown (<id>)" for codes outside every known range.
func (ConditionTable) DescribeCondition(id int) string {
	for _, r := range conditionRanges {
		if id >= r.lo && id <= r.hi {
			return r.phrase
		}
	}
	return fmt.Sprintf("Unknown (%d)", id)
}
