// Package normalize binds the events of one round to a sport's fixed slot
// list, producing a season whose episode count never depends on the feed.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/albapepper/sportsmeta/internal/provider"
	"github.com/albapepper/sportsmeta/internal/rounds"
	"github.com/albapepper/sportsmeta/internal/sport"
)

// Status is the binding state of an episode.
type Status string

const (
	StatusBound   Status = "bound"
	StatusUnbound Status = "unbound"
)

// Episode is one slot of a season, bound to zero or one event.
type Episode struct {
	Index   int
	Slug    string
	Title   string
	Summary string
	Status  Status

	Venue    string
	Location string
	// Start is the UTC start; HasTime is false for date-only or unknown.
	Start   time.Time
	HasTime bool
	// Date is the UTC calendar date, zero when unknown. Unbound episodes
	// get an estimate from the round's dates and the slot offset.
	Date          time.Time
	DateEstimated bool

	Event        *provider.Event
	PosterSource string
}

// Season is the normalized output grouping for one round.
type Season struct {
	Round   int
	Variant string
	Label   string
	Title   string
	// SortTitle keeps the upstream round number so gaps stay visible.
	SortTitle string
	Summary   string

	PosterSource     string
	BackgroundSource string

	Episodes []Episode
	// Ignored counts events that matched no slot or a slot already taken.
	Ignored int
}

// Bound returns the number of bound episodes.
func (s Season) Bound() int {
	n := 0
	for _, e := range s.Episodes {
		if e.Status == StatusBound {
			n++
		}
	}
	return n
}

// Normalize binds round events to the definition's slots. The season always
// has exactly as many episodes as the slot list chosen for the round.
func Normalize(round rounds.Round, def sport.Definition) Season {
	events := sortedEvents(round.Events)

	texts := make([]string, 0, len(events)*2)
	for _, e := range events {
		texts = append(texts, e.Name, e.AltName)
	}
	slots, variant := def.SlotsFor(texts)

	bound := make([]*provider.Event, len(slots))
	var order []int // slot indexes in the order they were bound
	ignored := 0
	for i := range events {
		e := &events[i]
		idx := sport.Classify(slots, e.Name, e.AltName, e.Filename)
		if idx < 0 || bound[idx] != nil {
			ignored++
			continue
		}
		bound[idx] = e
		order = append(order, idx)
	}

	season := Season{
		Round:   round.Number,
		Variant: variant,
		Ignored: ignored,
	}

	var primary, first *provider.Event
	if len(order) > 0 {
		first = bound[order[0]]
	}
	for i, s := range slots {
		if s.Primary && bound[i] != nil {
			primary = bound[i]
			break
		}
	}
	if primary == nil {
		primary = first
	}

	season.Label = roundLabel(def.RoundLabel, round.Number, first)
	season.Title = season.Label
	if primary != nil {
		if t := def.CleanTitle(primary.Name); t != "" {
			season.Title = t
		}
	}
	season.SortTitle = fmt.Sprintf("%02d_%s", round.Number, season.Title)
	season.PosterSource, season.BackgroundSource = seasonArtwork(primary, events)

	anchor := anchorDate(events)
	var dates []time.Time
	season.Episodes = make([]Episode, len(slots))
	for i, s := range slots {
		ep := Episode{
			Index:  i + 1,
			Slug:   s.Slug,
			Title:  s.Title,
			Status: StatusUnbound,
		}
		if e := bound[i]; e != nil {
			ep.Status = StatusBound
			ep.Event = e
			ep.Venue = e.Venue
			ep.Location = e.Location()
			if e.HasStart() {
				ep.Start = e.Start
				ep.HasTime = !e.DateOnly
				ep.Date = dateOf(e.Start)
				dates = append(dates, ep.Date)
			}
			ep.PosterSource = e.ThumbSource()
			ep.Summary = boundSummary(s, e, season.Title, ep)
		} else {
			if !anchor.IsZero() {
				ep.Date = anchor.AddDate(0, 0, s.DayOffset)
				ep.DateEstimated = true
			}
			ep.Summary = joinSentences(s.Summary, def.Summary)
		}
		season.Episodes[i] = ep
	}

	season.Summary = seasonSummary(def, round.Number, season.Title, season.Bound(), primary, dates)
	return season
}

// sortedEvents orders events by start, then name, then id. Undated events
// go last.
func sortedEvents(in []provider.Event) []provider.Event {
	events := append([]provider.Event(nil), in...)
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.HasStart() != b.HasStart() {
			return a.HasStart()
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return events
}

func roundLabel(label string, number int, first *provider.Event) string {
	base := fmt.Sprintf("%s %02d", label, number)
	if first == nil {
		return fmt.Sprintf("%s %d", label, number)
	}
	place := first.Venue
	if place == "" {
		place = first.Location()
	}
	if place == "" {
		return base
	}
	return base + " — " + place
}

func seasonArtwork(primary *provider.Event, events []provider.Event) (poster, background string) {
	if primary != nil {
		poster = primary.PosterSource()
		background = primary.BackgroundSource()
	}
	for _, e := range events {
		if poster == "" {
			poster = e.PosterSource()
		}
		if background == "" {
			background = e.BackgroundSource()
		}
	}
	return poster, background
}

// anchorDate is the latest event date in the round.
func anchorDate(events []provider.Event) time.Time {
	var anchor time.Time
	for _, e := range events {
		if !e.HasStart() {
			continue
		}
		if d := dateOf(e.Start); d.After(anchor) {
			anchor = d
		}
	}
	return anchor
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func joinSentences(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// CompactSummary collapses runs of whitespace so summaries fold cleanly.
func CompactSummary(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
