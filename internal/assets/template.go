package assets

import (
	"fmt"
	"strconv"
	"strings"
)

// Default path templates, relative to the assets root and the public base.
const (
	DefaultSeasonPosterTemplate  = "posters/{sport}/{season}/s{round}/poster.jpg"
	DefaultEpisodePosterTemplate = "posters/{sport}/{season}/s{round}/e{episode}.jpg"
)

// Tokens are the only inputs a template may depend on, so paths never
// change with upstream content.
type Tokens struct {
	Sport   string
	Season  string
	Round   int // season index in the output
	Episode int
}

// Expand fills {sport} {season} {round} {round_token} and {episode}.
// {round_token} is the zero-padded round ("03").
func Expand(template string, t Tokens) string {
	r := strings.NewReplacer(
		"{sport}", sanitizeToken(t.Sport),
		"{season}", sanitizeToken(t.Season),
		"{round_token}", fmt.Sprintf("%02d", t.Round),
		"{round}", strconv.Itoa(t.Round),
		"{episode}", strconv.Itoa(t.Episode),
	)
	return r.Replace(template)
}

// IsAbsoluteURL reports whether a template is already a full http(s) URL.
func IsAbsoluteURL(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// sanitizeToken lowercases value and keeps letters, digits, hyphens and
// underscores; anything else becomes an underscore.
func sanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
