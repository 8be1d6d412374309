// Package provider defines the canonical event shape that feed clients
// normalize into. These structs are the contract between feed handlers and
// the metadata pipeline: feeds output these, the normalizer binds them to
// episode slots.
//
// Adding a new feed means implementing functions that return these types.
// The normalizer and emitter never change.
package provider

import (
	"strings"
	"time"
)

// Event is the canonical shape of one upstream session/fixture record.
type Event struct {
	ID          string `json:"id"`
	Round       int    `json:"round"`
	Name        string `json:"name"`
	AltName     string `json:"alt_name,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Description string `json:"description,omitempty"`

	Venue   string `json:"venue,omitempty"`
	Circuit string `json:"circuit,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`

	// Start is always UTC. DateOnly reports that the feed gave a calendar
	// date but no usable time of day.
	Start    time.Time `json:"start,omitempty"`
	DateOnly bool      `json:"date_only,omitempty"`
	// LocalClock is the venue-local start time exactly as published.
	LocalClock string `json:"local_clock,omitempty"`

	// Artwork candidates, in feed field priority order.
	Posters     []string `json:"posters,omitempty"`
	Backgrounds []string `json:"backgrounds,omitempty"`
	Thumbs      []string `json:"thumbs,omitempty"`
}

// HasStart reports whether the event carries any date information.
func (e Event) HasStart() bool {
	return !e.Start.IsZero()
}

// MatchText returns the text used for slot classification.
func (e Event) MatchText() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{e.Name, e.AltName, e.Filename} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Location joins circuit, city and country, skipping empty parts.
func (e Event) Location() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{e.Circuit, e.City, e.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// PosterSource returns the first non-empty poster candidate.
func (e Event) PosterSource() string { return firstNonEmpty(e.Posters) }

// BackgroundSource returns the first non-empty background candidate.
func (e Event) BackgroundSource() string { return firstNonEmpty(e.Backgrounds) }

// ThumbSource returns the first non-empty episode thumbnail candidate.
func (e Event) ThumbSource() string { return firstNonEmpty(e.Thumbs) }

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
