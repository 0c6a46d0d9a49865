// Package render turns forecast outcomes into Reddit reply text.
package render

import (
	"fmt"
	"strings"

	"github.com/cagomez/forecastbot/internal/models"
)

// Attribution is required verbatim by the Weather Underground terms of
// service. It must be appended unaltered to every successful forecast reply.
const Attribution = "\n\n ^Data ^courtesy ^of ^Weather ^Underground, ^Inc."

// Reply renders the outcome of a forecast lookup as Markdown. Successful
// outcomes become a table with exactly min(requestedDays, len(days)) columns;
// not-found and ambiguous outcomes become an apology naming the location.
func Reply(loc models.Location, outcome models.Outcome, requestedDays int) string {
	switch outcome.Kind {
	case models.OutcomeNotFound:
		return fmt.Sprintf("Sorry, %s, %s, was not found.", loc.City, loc.State)
	case models.OutcomeAmbiguous:
		return fmt.Sprintf("Sorry, %s, %s produces too many results. Can you be more specific?", loc.City, loc.State)
	}

	days := outcome.Days
	if requestedDays < len(days) {
		days = days[:requestedDays]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your %d day weather forecast for %s, %s is: \n\n ", len(days), loc.City, loc.State)

	// Date header row: weekday plus m/d/yy.
	b.WriteString("\n| ")
	for _, d := range days {
		fmt.Fprintf(&b, "%s %d/%d/%02d | ", d.Weekday, d.Month, d.Day, d.Year%100)
	}

	// Separator row, one cell per rendered day.
	b.WriteString("\n")
	for range days {
		b.WriteString("|---\t")
	}
	b.WriteString("|")

	b.WriteString("\n| ")
	for _, d := range days {
		fmt.Fprintf(&b, "%s |", d.Conditions)
	}

	b.WriteString("\n|")
	for _, d := range days {
		fmt.Fprintf(&b, "High: %dF |", d.HighF)
	}

	b.WriteString("\n|")
	for _, d := range days {
		fmt.Fprintf(&b, "Low: %dF | ", d.LowF)
	}

	b.WriteString(Attribution)
	return b.String()
}
