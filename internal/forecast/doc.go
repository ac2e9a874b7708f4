// Package forecast decodes OpenWeatherMap daily-forecast documents into
// rows for display and for storage.
//
// # Payload conventions
//
// The provider returns one JSON document per request with a "list" array
// holding one entry per day. Only a subset of each entry is meaningful
// here: pressure, humidity, wind speed ("speed") and direction ("deg"),
// the temperature extremes under "temp", and the leading condition code
// under "weather". Every other field, including the per-entry timestamps,
// is ignored.
//
// # Dates
//
// Entry dates are positional. The array index is the day offset from
// "today", where today is the current clock day truncated to midnight and
// captured once per decode call. Offsets advance by calendar day, so a
// run that crosses a daylight-saving transition still lands on the right
// date.
//
// # Status codes
//
// Documents may carry a top-level "cod" status, serialized by the
// provider as either a number or a quoted string. A non-OK status means
// the document has no forecast data: the display path treats it as an
// empty result, while the storage path reports it as a location-not-found
// or upstream failure so callers can react.
package forecast
