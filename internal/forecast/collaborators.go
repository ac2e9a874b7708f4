package forecast

import "context"

// ConditionDescriber turns a provider weather condition code into a short
// human-readable phrase.
type ConditionDescriber interface {
	DescribeCondition(id int) string
}

// HighLowFormatter renders a day's temperature extremes for display.
// Inputs are Celsius as delivered by the provider.
type HighLowFormatter interface {
	FormatHighLow(high, low float64) string
}

// LocationRegistry records the coordinate the provider resolved for the
// requested location. Failures are logged by the caller, never surfaced:
// the registry is a best-effort side channel, not part of decoding.
type LocationRegistry interface {
	RecordLocation(ctx context.Context, lat, lon float64) error
}
