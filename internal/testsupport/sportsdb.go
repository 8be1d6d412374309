// Package testsupport provides a fake TheSportsDB server for package tests.
package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// PNG is a tiny payload served for artwork requests.
var PNG = []byte("\x89PNG\r\n\x1a\nfake")

// FakeSportsDB serves the subset of TheSportsDB v1/v2 used by the pipeline.
// Rounds hold raw event objects exactly as the API would return them.
type FakeSportsDB struct {
	*httptest.Server

	mu            sync.Mutex
	rounds        map[int][]map[string]any
	seasonStatus  int
	roundStatuses map[int][]int
	mediaStatus   map[string]int
	descriptions  map[string]string
	hits          map[string]int
	apiKeys       []string
}

// NewFakeSportsDB starts a fake server that is closed with the test.
func NewFakeSportsDB(t testing.TB) *FakeSportsDB {
	t.Helper()
	f := &FakeSportsDB{
		rounds:        make(map[int][]map[string]any),
		roundStatuses: make(map[int][]int),
		mediaStatus:   make(map[string]int),
		descriptions:  make(map[string]string),
		hits:          make(map[string]int),
	}

	r := chi.NewRouter()
	r.Route("/api/v1/json/{key}", func(r chi.Router) {
		r.Get("/eventsseason.php", f.handleSeason)
		r.Get("/eventsround.php", f.handleRound)
		r.Get("/all_seasons.php", f.handleSeasons)
	})
	r.Route("/api/v2/json", func(r chi.Router) {
		r.Get("/schedule/league/{leagueID}/{season}", f.handleSeason)
		r.Get("/list/seasons/{leagueID}", f.handleSeasons)
	})
	r.Get("/media/{name}", f.handleMedia)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// AddEvent appends a raw event to a round. intRound is filled in.
func (f *FakeSportsDB) AddEvent(round int, event map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := event["intRound"]; !ok {
		event["intRound"] = strconv.Itoa(round)
	}
	f.rounds[round] = append(f.rounds[round], event)
}

// FailSeason makes the season endpoint answer with status.
func (f *FakeSportsDB) FailSeason(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seasonStatus = status
}

// FailRound queues statuses returned by successive requests for a round
// before it starts answering normally.
func (f *FakeSportsDB) FailRound(round int, statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roundStatuses[round] = append(f.roundStatuses[round], statuses...)
}

// SetMediaStatus makes /media/{name} answer with status.
func (f *FakeSportsDB) SetMediaStatus(name string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mediaStatus[name] = status
}

// SetSeasonDescription registers a season description.
func (f *FakeSportsDB) SetSeasonDescription(season, description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.descriptions[season] = description
}

// MediaURL returns the absolute URL of a fake artwork file.
func (f *FakeSportsDB) MediaURL(name string) string {
	return f.URL + "/media/" + name
}

// Hits returns how many requests reached an endpoint ("season", "round:N",
// "seasons", "media:NAME").
func (f *FakeSportsDB) Hits(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

// APIKeys returns the keys seen in v1 paths or v2 headers, in request order.
func (f *FakeSportsDB) APIKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.apiKeys...)
}

func (f *FakeSportsDB) record(r *http.Request, key string) {
	f.hits[key]++
	if k := chi.URLParam(r, "key"); k != "" {
		f.apiKeys = append(f.apiKeys, k)
	} else if k := r.Header.Get("X-API-KEY"); k != "" {
		f.apiKeys = append(f.apiKeys, k)
	}
}

func (f *FakeSportsDB) handleSeason(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.record(r, "season")
	status := f.seasonStatus
	var events []map[string]any
	for round := 1; round <= maxRound(f.rounds); round++ {
		events = append(events, f.rounds[round]...)
	}
	f.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	key := "events"
	if chi.URLParam(r, "leagueID") != "" {
		key = "schedule"
	}
	writeJSON(w, map[string]any{key: nullIfEmpty(events)})
}

func (f *FakeSportsDB) handleRound(w http.ResponseWriter, r *http.Request) {
	round, err := strconv.Atoi(r.URL.Query().Get("r"))
	if err != nil {
		http.Error(w, "bad round", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.record(r, fmt.Sprintf("round:%d", round))
	var status int
	if queued := f.roundStatuses[round]; len(queued) > 0 {
		status = queued[0]
		f.roundStatuses[round] = queued[1:]
	}
	events := f.rounds[round]
	f.mu.Unlock()

	if status != 0 {
		if status == http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not json"))
			return
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	writeJSON(w, map[string]any{"events": nullIfEmpty(events)})
}

func (f *FakeSportsDB) handleSeasons(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.record(r, "seasons")
	var list []map[string]any
	for season, desc := range f.descriptions {
		list = append(list, map[string]any{"strSeason": season, "strDescriptionEN": desc})
	}
	f.mu.Unlock()
	writeJSON(w, map[string]any{"seasons": list})
}

func (f *FakeSportsDB) handleMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f.mu.Lock()
	f.record(r, "media:"+name)
	status := f.mediaStatus[name]
	f.mu.Unlock()

	switch {
	case status == 0:
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(PNG)
	case status == http.StatusOK:
		// 200 with a non-image body.
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not an image</html>"))
	default:
		http.Error(w, http.StatusText(status), status)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func nullIfEmpty(events []map[string]any) any {
	if len(events) == 0 {
		return nil
	}
	return events
}

func maxRound(rounds map[int][]map[string]any) int {
	m := 0
	for r := range rounds {
		if r > m {
			m = r
		}
	}
	return m
}
