package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/albapepper/sportsmeta/internal/provider"
	"github.com/albapepper/sportsmeta/internal/sport"
)

func boundSummary(s sport.Slot, e *provider.Event, roundTitle string, ep Episode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %s", s.Title, roundTitle)
	if ep.Venue != "" {
		fmt.Fprintf(&b, " takes place at %s", ep.Venue)
		if ep.Location != "" && ep.Location != ep.Venue {
			fmt.Fprintf(&b, " (%s)", ep.Location)
		}
	} else if ep.Location != "" {
		fmt.Fprintf(&b, " takes place in %s", ep.Location)
	}
	if !ep.Date.IsZero() {
		fmt.Fprintf(&b, " on %s", ep.Date.Format("January 2, 2006"))
	}
	b.WriteString(".")

	sentences := []string{b.String()}
	if ep.HasTime {
		sentences = append(sentences, fmt.Sprintf("Start: %s UTC.", ep.Start.Format("15:04")))
	}
	if e.LocalClock != "" {
		sentences = append(sentences, fmt.Sprintf("Local start: %s.", e.LocalClock))
	}
	if e.Description != "" {
		sentences = append(sentences, e.Description)
	} else {
		sentences = append(sentences, s.Summary)
	}
	return CompactSummary(joinSentences(sentences...))
}

func seasonSummary(def sport.Definition, number int, title string, bound int, primary *provider.Event, dates []time.Time) string {
	head := fmt.Sprintf("%s %d (%s)", def.RoundLabel, number, title)
	sessions := "sessions"
	if bound == 1 {
		sessions = "session"
	}

	var summary string
	switch span := formatDateRange(dates); {
	case bound > 0 && span != "":
		summary = fmt.Sprintf("%s spans %s with %d %s mapped from TheSportsDB for this %s round.",
			head, span, bound, sessions, def.Name)
	case bound > 0:
		summary = fmt.Sprintf("%s currently lists %d %s for the round.", head, bound, sessions)
	default:
		summary = fmt.Sprintf("%s does not yet have %s sessions available in TheSportsDB.", head, def.Name)
	}
	if primary != nil {
		if where := primary.Location(); where != "" {
			summary += " Location: " + where + "."
		}
	}
	return summary
}

// formatDateRange renders the span of dates the way a schedule would:
// "March 2, 2025", "March 2-4, 2025", "March 30 - April 1, 2025".
func formatDateRange(dates []time.Time) string {
	if len(dates) == 0 {
		return ""
	}
	ordered := append([]time.Time(nil), dates...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })
	first, last := ordered[0], ordered[len(ordered)-1]

	switch {
	case first.Equal(last):
		return first.Format("January 2, 2006")
	case first.Year() == last.Year() && first.Month() == last.Month():
		return fmt.Sprintf("%s %d-%d, %d", first.Format("January"), first.Day(), last.Day(), first.Year())
	case first.Year() == last.Year():
		return fmt.Sprintf("%s - %s, %d", first.Format("January 2"), last.Format("January 2"), first.Year())
	default:
		return fmt.Sprintf("%s - %s", first.Format("January 2, 2006"), last.Format("January 2, 2006"))
	}
}
