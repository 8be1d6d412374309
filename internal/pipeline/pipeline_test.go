package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/albapepper/sportsmeta/internal/assets"
	"github.com/albapepper/sportsmeta/internal/cache"
	"github.com/albapepper/sportsmeta/internal/pipeline"
	"github.com/albapepper/sportsmeta/internal/provider/sportsdb"
	"github.com/albapepper/sportsmeta/internal/rounds"
	"github.com/albapepper/sportsmeta/internal/sport"
	"github.com/albapepper/sportsmeta/internal/testsupport"
)

const publicBase = "https://raw.example.test/sports"

func fourSlots() sport.Definition {
	return sport.Definition{
		ID:         "test-series",
		Name:       "Test Series",
		ShowTitle:  "Test Series {season}",
		RoundLabel: "Round",
		Summary:    "Details to follow.",
		Slots: []sport.Slot{
			{Slug: "practice", Title: "Practice", Keywords: []string{"practice"}, DayOffset: -2},
			{Slug: "qualifying", Title: "Qualifying", Keywords: []string{"qualifying"}, DayOffset: -1},
			{Slug: "sprint", Title: "Sprint", Keywords: []string{"sprint"}, DayOffset: -1},
			{Slug: "race", Title: "Race", Keywords: []string{"grand prix", "race"},
				Exclude: []string{"practice", "qualifying", "sprint"}, Primary: true},
		},
	}
}

type harness struct {
	fake   *testsupport.FakeSportsDB
	deps   pipeline.Deps
	opts   pipeline.Options
	root   string
	output string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := testsupport.NewFakeSportsDB(t)
	dir := t.TempDir()
	settings := sportsdb.NewSettings("", "v1", fake.URL)
	client := sportsdb.NewClient(sportsdb.Options{MaxRetries: 1, RetryBackoff: time.Millisecond}, nil)
	feed := sportsdb.NewFeed(client, settings, 1234, "2025", cache.New(true), nil)
	root := filepath.Join(dir, "assets")
	resolver := assets.NewResolver(client, assets.Options{Root: root, PublicBase: publicBase}, nil)

	return &harness{
		fake: fake,
		deps: pipeline.Deps{Feed: feed, Resolver: resolver, Sport: fourSlots()},
		opts: pipeline.Options{
			Season:                "2025",
			Discovery:             rounds.Options{Start: 1, Stop: 3, SeasonPrefetch: true},
			SeasonPosterTemplate:  assets.DefaultSeasonPosterTemplate,
			EpisodePosterTemplate: assets.DefaultEpisodePosterTemplate,
			AssetWorkers:          2,
			Output:                filepath.Join(dir, "metadata", "test.yml"),
		},
		root:   root,
		output: filepath.Join(dir, "metadata", "test.yml"),
	}
}

type document struct {
	Metadata map[string]struct {
		Title   string `yaml:"title"`
		Summary string `yaml:"summary"`
		Seasons map[int]struct {
			Title     string `yaml:"title"`
			SortTitle string `yaml:"sort_title"`
			Poster    string `yaml:"url_poster"`
			Episodes  map[int]struct {
				Title  string `yaml:"title"`
				Poster string `yaml:"url_poster"`
				Date   string `yaml:"originally_available"`
			} `yaml:"episodes"`
		} `yaml:"seasons"`
	} `yaml:"metadata"`
}

func readDocument(t *testing.T, path string) document {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parse output: %v\n%s", err, data)
	}
	return doc
}

func TestRunCompactsRoundGaps(t *testing.T) {
	h := newHarness(t)
	h.fake.AddEvent(1, map[string]any{"strEvent": "Alpha Grand Prix Practice", "dateEvent": "2025-03-01", "strTime": "10:00:00"})
	h.fake.AddEvent(1, map[string]any{"strEvent": "Alpha Grand Prix", "strVenue": "Alpha Ring", "dateEvent": "2025-03-03", "strTime": "14:00:00",
		"strPoster": h.fake.MediaURL("alpha.png")})
	h.fake.AddEvent(3, map[string]any{"strEvent": "Gamma Grand Prix Qualifying", "dateEvent": "2025-03-22"})
	h.fake.AddEvent(3, map[string]any{"strEvent": "Gamma Grand Prix Qualifying 2", "dateEvent": "2025-03-22"})
	h.fake.AddEvent(3, map[string]any{"strEvent": "Gamma Grand Prix", "dateEvent": "2025-03-23"})

	result, err := pipeline.Run(context.Background(), h.deps, h.opts, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.RoundsDiscovered != 2 || result.RoundsEmpty != 1 || result.RoundsFailed != 0 {
		t.Fatalf("unexpected round counts: %s", result.Summary())
	}
	if result.EventsIgnored != 1 || result.EpisodesBound != 4 || result.EpisodesUnbound != 4 {
		t.Fatalf("unexpected episode counts: %s", result.Summary())
	}

	doc := readDocument(t, h.output)
	show, ok := doc.Metadata["Test Series 2025"]
	if !ok {
		t.Fatalf("show key missing: %+v", doc.Metadata)
	}
	if len(show.Seasons) != 2 {
		t.Fatalf("seasons = %d, want 2", len(show.Seasons))
	}
	for _, key := range []int{1, 2} {
		s, ok := show.Seasons[key]
		if !ok {
			t.Fatalf("season key %d missing", key)
		}
		if len(s.Episodes) != 4 {
			t.Fatalf("season %d has %d episodes, want 4", key, len(s.Episodes))
		}
		for e := 1; e <= 4; e++ {
			ep := s.Episodes[e]
			want := publicBase + "/posters/test-series/2025/s" + itoa(key) + "/e" + itoa(e) + ".jpg"
			if ep.Poster != want {
				t.Errorf("season %d episode %d poster = %q, want %q", key, e, ep.Poster, want)
			}
		}
	}
	if show.Seasons[2].SortTitle != "03_Gamma Grand Prix" {
		t.Fatalf("sort title keeps upstream round: %q", show.Seasons[2].SortTitle)
	}
	if show.Seasons[1].Poster != publicBase+"/posters/test-series/2025/s1/poster.jpg" {
		t.Fatalf("season poster = %q", show.Seasons[1].Poster)
	}
	if show.Seasons[1].Episodes[4].Date != "2025-03-03" || show.Seasons[1].Episodes[2].Date != "2025-03-02" {
		t.Fatalf("dates: race=%q qualifying(estimated)=%q",
			show.Seasons[1].Episodes[4].Date, show.Seasons[1].Episodes[2].Date)
	}

	poster := filepath.Join(h.root, "posters", "test-series", "2025", "s1", "poster.jpg")
	if _, err := os.Stat(poster); err != nil {
		t.Fatalf("season poster not downloaded: %v", err)
	}
	// Season 1 poster and race thumbnail share the race artwork.
	if result.AssetsDownloaded != 2 {
		t.Fatalf("assets downloaded = %d", result.AssetsDownloaded)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.fake.AddEvent(2, map[string]any{"strEvent": "Beta Grand Prix", "dateEvent": "2025-04-06"})

	if _, err := pipeline.Run(context.Background(), h.deps, h.opts, nil); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(h.output)
	if _, err := pipeline.Run(context.Background(), h.deps, h.opts, nil); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(h.output)
	if !bytes.Equal(first, second) {
		t.Fatalf("outputs differ:\n%s\n---\n%s", first, second)
	}
}

func TestRunToleratesRoundFailuresAndAssetErrors(t *testing.T) {
	h := newHarness(t)
	h.opts.Discovery.SeasonPrefetch = false
	h.fake.AddEvent(1, map[string]any{"strEvent": "Alpha Grand Prix", "dateEvent": "2025-03-03",
		"strThumb": h.fake.MediaURL("gone.png")})
	h.fake.AddEvent(3, map[string]any{"strEvent": "Gamma Grand Prix", "dateEvent": "2025-03-23"})
	h.fake.FailRound(2, http.StatusServiceUnavailable, http.StatusServiceUnavailable)
	h.fake.SetMediaStatus("gone.png", http.StatusNotFound)

	result, err := pipeline.Run(context.Background(), h.deps, h.opts, nil)
	if err != nil {
		t.Fatalf("partial failures must not be fatal: %v", err)
	}
	if result.RoundsFailed != 1 || result.RoundsDiscovered != 2 {
		t.Fatalf("unexpected counts: %s", result.Summary())
	}
	if result.AssetsURLOnly == 0 || len(result.Errors) < 2 {
		t.Fatalf("expected asset fallback and errors: %s %v", result.Summary(), result.Errors)
	}

	doc := readDocument(t, h.output)
	race := doc.Metadata["Test Series 2025"].Seasons[1].Episodes[4]
	if race.Poster != publicBase+"/posters/test-series/2025/s1/e4.jpg" {
		t.Fatalf("failed download must still reference the public path, got %q", race.Poster)
	}
}

func TestRunDoesNotEmitWhenCancelled(t *testing.T) {
	h := newHarness(t)
	h.fake.AddEvent(1, map[string]any{"strEvent": "Alpha Grand Prix", "dateEvent": "2025-03-03"})
	if err := os.MkdirAll(filepath.Dir(h.output), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(h.output, []byte("previous\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.Run(ctx, h.deps, h.opts, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	data, _ := os.ReadFile(h.output)
	if string(data) != "previous\n" {
		t.Fatalf("previous output was replaced: %q", data)
	}
}

func TestRunRejectsInvalidRange(t *testing.T) {
	h := newHarness(t)
	h.opts.Discovery.Start, h.opts.Discovery.Stop = 5, 2
	if _, err := pipeline.Run(context.Background(), h.deps, h.opts, nil); !errors.Is(err, rounds.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := os.Stat(h.output); !os.IsNotExist(err) {
		t.Fatal("invalid configuration must not write output")
	}
}

func TestRunSummaryFallsBackToSeasonDescription(t *testing.T) {
	h := newHarness(t)
	h.fake.SetSeasonDescription("2025", "A season of firsts.")
	if _, err := pipeline.Run(context.Background(), h.deps, h.opts, nil); err != nil {
		t.Fatal(err)
	}
	doc := readDocument(t, h.output)
	if got := doc.Metadata["Test Series 2025"].Summary; !strings.Contains(got, "A season of firsts.") {
		t.Fatalf("summary = %q", got)
	}
}

func itoa(n int) string {
	return string(rune('0' + n))
}
