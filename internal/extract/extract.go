// Package extract parses free-text comment bodies into structured forecast
// requests. All functions are pure and never fail: anything that does not
// match falls back to a sentinel or a default.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cagomez/forecastbot/internal/models"
)

// CallToAction is the invocation phrase a comment must contain to be
// eligible for a reply.
const CallToAction = "forecastbot!"

// DefaultDays is used when a comment does not ask for a specific
// forecast length, or asks for one outside [1,10].
const DefaultDays = 5

const (
	// MinDays and MaxDays bound the forecast length a comment may request.
	// The provider returns at most ten days.
	MinDays = 1
	MaxDays = 10
)

// US state and territory codes accepted after the comma in "City, ST".
const stateCodes = "AL|AK|AS|AZ|AR|CA|CO|CT|DE|DC|FM|FL|GA|GU|HI|ID|IL|IN|IA|KS|" +
	"KY|LA|ME|MH|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|MP|OH|OK|" +
	"OR|PW|PA|PR|RI|SC|SD|TN|TX|UT|VT|VI|VA|WA|WV|WI|WY"

var (
	// City is one or more capitalized words, then ", " and a state code.
	// First match in the body wins.
	cityStatePattern = regexp.MustCompile(`(?P<city>(?:[A-Z]\w+\s*)+),\s(?P<state>` + stateCodes + `)`)

	// A 1-2 digit number, at most one separator character, then "day" or
	// "days" in any case.
	daysPattern = regexp.MustCompile(`(?i)(\d{1,2}).?days?`)
)

// ContainsCall reports whether body contains the invocation phrase,
// case-insensitively.
func ContainsCall(body string) bool {
	return strings.Contains(strings.ToLower(body), CallToAction)
}

// Location extracts the first "City, ST" pair from body. When no pair is
// found it returns the unresolved sentinel, never an error.
func Location(body string) models.Location {
	m := cityStatePattern.FindStringSubmatch(body)
	if m == nil {
		return models.Unresolved()
	}
	return models.Location{
		City:     strings.TrimSpace(m[1]),
		State:    m[2],
		Resolved: true,
	}
}

// RequestedDays extracts a forecast length like "3 days" or "7day" from
// body. Missing, unparsable, or out-of-range values all fall back to
// DefaultDays.
func RequestedDays(body string) int {
	m := daysPattern.FindStringSubmatch(body)
	if m == nil {
		return DefaultDays
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < MinDays || n > MaxDays {
		return DefaultDays
	}
	return n
}
