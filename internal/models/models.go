package models

// InvalidLocation is the sentinel value used for both fields of a Location
// when no city/state pair could be extracted from a comment body.
const InvalidLocation = "invalid"

// Location is an extracted city/state pair. State is a two-letter US state
// or territory code. Immutable once constructed.
type Location struct {
	City     string
	State    string
	Resolved bool
}

// Unresolved returns the sentinel location used when extraction fails.
func Unresolved() Location {
	return Location{City: InvalidLocation, State: InvalidLocation}
}

// ForecastDay is one day of a provider forecast.
type ForecastDay struct {
	Weekday    string // short weekday name, e.g. "Mon"
	Month      int
	Day        int
	Year       int
	Conditions string
	HighF      int
	LowF       int
}

// OutcomeKind tags the three shapes a forecast lookup can resolve to.
type OutcomeKind int

const (
	// OutcomeNotFound means the provider did not recognise the location.
	OutcomeNotFound OutcomeKind = iota
	// OutcomeAmbiguous means the location matched more than one place.
	OutcomeAmbiguous
	// OutcomeSuccess carries an ordered multi-day forecast.
	OutcomeSuccess
)

// Outcome is the tagged result of a forecast fetch. Days is populated only
// when Kind is OutcomeSuccess, in chronological order, at most 10 entries.
type Outcome struct {
	Kind OutcomeKind
	Days []ForecastDay
}

// Comment is a single public comment pulled from the source platform.
type Comment struct {
	ID     string
	Author string
	Body   string
}
