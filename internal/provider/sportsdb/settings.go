package sportsdb

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultSiteRoot is the public TheSportsDB host.
const DefaultSiteRoot = "https://www.thesportsdb.com"

// DefaultAPIKey is the shared free-tier key.
const DefaultAPIKey = "123"

// Settings holds API credentials plus helpers for URLs and headers.
type Settings struct {
	APIKey     string
	APIVersion string
	SiteRoot   string
}

// NewSettings normalizes credentials: empty key falls back to the free key,
// versions become "v#", the site root loses its trailing slash.
func NewSettings(apiKey, apiVersion, siteRoot string) Settings {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}
	siteRoot = strings.TrimRight(strings.TrimSpace(siteRoot), "/")
	if siteRoot == "" {
		siteRoot = DefaultSiteRoot
	}
	return Settings{
		APIKey:     apiKey,
		APIVersion: NormalizeAPIVersion(apiVersion),
		SiteRoot:   siteRoot,
	}
}

// NormalizeAPIVersion maps "1", "V2", " v1 " to "v1"/"v2" (default v1).
func NormalizeAPIVersion(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "v1"
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// DefaultInterval is a safe request spacing for the API tier: the free v1
// tier allows ~30 requests/minute, premium v2 ~100.
func DefaultInterval(apiVersion string) time.Duration {
	if NormalizeAPIVersion(apiVersion) == "v2" {
		return 600 * time.Millisecond
	}
	return 2100 * time.Millisecond
}

// BaseURL is the versioned JSON API root.
func (s Settings) BaseURL() string {
	return fmt.Sprintf("%s/api/%s/json", s.SiteRoot, s.APIVersion)
}

// IsV2 reports whether header-based v2 auth is in use.
func (s Settings) IsV2() bool {
	return s.APIVersion == "v2"
}

// AuthHeaders returns the headers required by the current API tier.
func (s Settings) AuthHeaders() map[string]string {
	if s.IsV2() && s.APIKey != "" {
		return map[string]string{"X-API-KEY": s.APIKey}
	}
	return nil
}

// SeasonURL returns the full-season schedule endpoint.
func (s Settings) SeasonURL(leagueID int, season string) string {
	if s.IsV2() {
		return fmt.Sprintf("%s/schedule/league/%d/%s", s.BaseURL(), leagueID, url.PathEscape(season))
	}
	return fmt.Sprintf("%s/%s/eventsseason.php?id=%d&s=%s",
		s.BaseURL(), s.APIKey, leagueID, url.QueryEscape(season))
}

// RoundURL returns the v1 per-round endpoint. v2 has none; ok is false.
func (s Settings) RoundURL(leagueID int, season string, round int) (string, bool) {
	if s.IsV2() {
		return "", false
	}
	return fmt.Sprintf("%s/%s/eventsround.php?id=%d&r=%d&s=%s",
		s.BaseURL(), s.APIKey, leagueID, round, url.QueryEscape(season)), true
}

// SeasonDescriptionURL returns the endpoint listing per-season descriptions.
func (s Settings) SeasonDescriptionURL(leagueID int) string {
	if s.IsV2() {
		return fmt.Sprintf("%s/list/seasons/%d", s.BaseURL(), leagueID)
	}
	return fmt.Sprintf("%s/%s/all_seasons.php?id=%d", s.BaseURL(), s.APIKey, leagueID)
}
