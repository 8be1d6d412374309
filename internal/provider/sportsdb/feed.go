package sportsdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/albapepper/sportsmeta/internal/cache"
	"github.com/albapepper/sportsmeta/internal/provider"
)

// Feed fetches one league-season from TheSportsDB and normalizes events into
// provider.Event values.
type Feed struct {
	client   *Client
	settings Settings
	leagueID int
	season   string
	cache    *cache.Cache
	logger   *slog.Logger

	mu sync.Mutex
	// seasonErr remembers a failed schedule fetch for the rest of the run.
	seasonErr error
}

// NewFeed creates a feed for a league-season. The cache only memoizes the
// full-season schedule, which v2 round probes filter locally.
func NewFeed(client *Client, settings Settings, leagueID int, season string, c *cache.Cache, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		client:   client,
		settings: settings,
		leagueID: leagueID,
		season:   season,
		cache:    c,
		logger:   logger,
	}
}

// HasRoundEndpoint reports whether RoundEvents issues its own request. v2
// only filters the season schedule.
func (f *Feed) HasRoundEndpoint() bool { return !f.settings.IsV2() }

// SeasonEvents returns every event of the season. Once the schedule has
// failed, later calls return the same error without another request.
func (f *Feed) SeasonEvents(ctx context.Context) ([]provider.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seasonErr != nil {
		return nil, f.seasonErr
	}

	u := f.settings.SeasonURL(f.leagueID, f.season)
	body, err := f.cachedGet(ctx, u)
	if err != nil {
		err = fmt.Errorf("fetch season %s: %w", f.season, err)
		if ctx.Err() == nil {
			f.seasonErr = err
		}
		return nil, err
	}
	events, err := decodeEvents(body, u)
	if err != nil {
		f.seasonErr = err
		return nil, err
	}
	f.logger.Debug("Fetched season schedule", "league_id", f.leagueID, "season", f.season, "events", len(events))
	return events, nil
}

// RoundEvents returns the events of one round. v1 calls the round endpoint;
// v2 filters the (cached) season schedule.
func (f *Feed) RoundEvents(ctx context.Context, round int) ([]provider.Event, error) {
	u, ok := f.settings.RoundURL(f.leagueID, f.season, round)
	if !ok {
		all, err := f.SeasonEvents(ctx)
		if err != nil {
			return nil, err
		}
		var out []provider.Event
		for _, e := range all {
			if e.Round == round {
				out = append(out, e)
			}
		}
		return out, nil
	}

	body, _, err := f.client.Get(ctx, u, f.settings.AuthHeaders())
	if err != nil {
		return nil, fmt.Errorf("fetch round %d: %w", round, err)
	}
	events, err := decodeEvents(body, u)
	if err != nil {
		return nil, err
	}
	// The round endpoint sometimes omits intRound; the request defines it.
	for i := range events {
		if events[i].Round == 0 {
			events[i].Round = round
		}
	}
	return events, nil
}

// seasonEntry is one row of the season list endpoints.
type seasonEntry struct {
	Season        string `json:"strSeason"`
	DescriptionEN string `json:"strDescriptionEN"`
}

// SeasonDescription returns the English description of the feed's season, or
// "" when TheSportsDB has none.
func (f *Feed) SeasonDescription(ctx context.Context) (string, error) {
	u := f.settings.SeasonDescriptionURL(f.leagueID)
	var payload map[string]json.RawMessage
	if body, ok := f.cache.Get(u); ok {
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", &DecodeError{URL: redactURL(u), Err: err}
		}
	} else {
		body, _, err := f.client.Get(ctx, u, f.settings.AuthHeaders())
		if err != nil {
			return "", fmt.Errorf("fetch season list: %w", err)
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", &DecodeError{URL: redactURL(u), Err: err}
		}
		f.cache.Set(u, body, cache.TTLSeasonList)
	}

	for _, key := range []string{"seasons", "list", "results"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var entries []seasonEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			continue
		}
		for _, e := range entries {
			if e.Season != f.season {
				continue
			}
			if d := strings.TrimSpace(e.DescriptionEN); d != "" {
				return d, nil
			}
		}
	}
	return "", nil
}

func (f *Feed) cachedGet(ctx context.Context, u string) ([]byte, error) {
	if body, ok := f.cache.Get(u); ok {
		return body, nil
	}
	body, _, err := f.client.Get(ctx, u, f.settings.AuthHeaders())
	if err != nil {
		return nil, err
	}
	// Only cache bodies that decode; a broken payload should be refetched.
	var probe map[string]json.RawMessage
	if json.Unmarshal(body, &probe) == nil {
		f.cache.Set(u, body, cache.TTLSeasonSchedule)
	}
	return body, nil
}

func decodeEvents(body []byte, u string) ([]provider.Event, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &DecodeError{URL: redactURL(u), Err: err}
	}
	wire := extractEvents(payload)
	events := make([]provider.Event, 0, len(wire))
	for _, w := range wire {
		events = append(events, w.canonical())
	}
	return events, nil
}
