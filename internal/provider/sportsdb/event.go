package sportsdb

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/albapepper/sportsmeta/internal/provider"
)

// wireEvent is one TheSportsDB event record as returned by both API versions.
type wireEvent struct {
	ID             interface{} `json:"idEvent"`
	Event          string      `json:"strEvent"`
	EventAlternate string      `json:"strEventAlternate"`
	Filename       string      `json:"strFilename"`
	DescriptionEN  string      `json:"strDescriptionEN"`
	IntRound       interface{} `json:"intRound"`
	StrRound       interface{} `json:"strRound"`

	Venue   string `json:"strVenue"`
	Circuit string `json:"strCircuit"`
	City    string `json:"strCity"`
	Country string `json:"strCountry"`

	DateEvent      string `json:"dateEvent"`
	DateEventLocal string `json:"dateEventLocal"`
	Time           string `json:"strTime"`
	TimeLocal      string `json:"strTimeLocal"`
	Timestamp      string `json:"strTimestamp"`

	Poster      string `json:"strPoster"`
	EventPoster string `json:"strEventPoster"`
	Banner      string `json:"strBanner"`
	Thumb       string `json:"strThumb"`
	EventThumb  string `json:"strEventThumb"`
	Fanart      string `json:"strFanart"`
	Fanart1     string `json:"strFanart1"`
	Fanart2     string `json:"strFanart2"`
	Fanart3     string `json:"strFanart3"`
}

// payloadKeys are the list keys events may live under, depending on endpoint
// and API version.
var payloadKeys = []string{"events", "schedule", "fixtures", "results"}

// extractEvents returns the first event list found in the payload. A null or
// missing list yields no events.
func extractEvents(payload map[string]json.RawMessage) []wireEvent {
	for _, key := range payloadKeys {
		raw, ok := payload[key]
		if !ok || len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var events []wireEvent
		if err := json.Unmarshal(raw, &events); err != nil {
			// Some endpoints return a string here ("No data"); keep looking.
			continue
		}
		return events
	}
	return nil
}

// roundNumber reads intRound, then strRound. Zero means unknown.
func (w wireEvent) roundNumber() int {
	for _, v := range []interface{}{w.IntRound, w.StrRound} {
		if n, ok := provider.ExtractInt(v); ok && n > 0 {
			return n
		}
	}
	return 0
}

func (w wireEvent) canonical() provider.Event {
	start, dateOnly := parseStart(w)
	return provider.Event{
		ID:          provider.ExtractString(w.ID),
		Round:       w.roundNumber(),
		Name:        strings.TrimSpace(w.Event),
		AltName:     strings.TrimSpace(w.EventAlternate),
		Filename:    strings.TrimSpace(w.Filename),
		Description: strings.TrimSpace(w.DescriptionEN),
		Venue:       strings.TrimSpace(w.Venue),
		Circuit:     strings.TrimSpace(w.Circuit),
		City:        strings.TrimSpace(w.City),
		Country:     strings.TrimSpace(w.Country),
		Start:       start,
		DateOnly:    dateOnly,
		LocalClock:  strings.TrimSpace(w.TimeLocal),
		Posters:     compact(w.Poster, w.EventPoster, w.Banner, w.Thumb),
		Backgrounds: compact(w.Fanart, w.Fanart1, w.Fanart2, w.Fanart3),
		Thumbs:      compact(w.Thumb, w.EventThumb, w.Poster, w.Banner),
	}
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

var clockLayouts = []string{
	"15:04:05Z07:00",
	"15:04:05",
	"15:04Z07:00",
	"15:04",
}

// parseStart normalizes the event start to UTC.
//
// Order: strTimestamp (offset honoured, naive values are UTC), dateEvent +
// strTime (TheSportsDB publishes strTime in UTC), dateEvent alone, then
// dateEventLocal. The last two carry no time of day, so dateOnly is true.
func parseStart(w wireEvent) (time.Time, bool) {
	if ts := strings.TrimSpace(w.Timestamp); ts != "" {
		ts = strings.Replace(ts, "+00:00", "Z", 1)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, ts); err == nil {
				return t.UTC(), false
			}
		}
	}

	date, dateErr := time.Parse("2006-01-02", strings.TrimSpace(w.DateEvent))
	if dateErr == nil {
		if clock := strings.TrimSpace(w.Time); clock != "" {
			for _, layout := range clockLayouts {
				if c, err := time.Parse(layout, clock); err == nil {
					_, offset := c.Zone()
					t := time.Date(date.Year(), date.Month(), date.Day(),
						c.Hour(), c.Minute(), c.Second(), 0, time.FixedZone("", offset))
					return t.UTC(), false
				}
			}
		}
		return date.UTC(), true
	}

	if local, err := time.Parse("2006-01-02", strings.TrimSpace(w.DateEventLocal)); err == nil {
		return local.UTC(), true
	}
	return time.Time{}, false
}

func compact(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
