package forecast

import "github.com/jonboulle/clockwork"

// clock is the package time source, swappable so tests can freeze "today".
var clock = clockwork.NewRealClock()

// SetClock replaces the time source used to anchor forecast dates.
// Passing nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
