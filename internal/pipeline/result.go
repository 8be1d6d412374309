package pipeline

import (
	"fmt"
	"time"

	"github.com/albapepper/sportsmeta/internal/assets"
)

// Result tracks counts and errors from one generation run.
type Result struct {
	RoundsDiscovered int
	RoundsEmpty      int
	RoundsFailed     int
	EpisodesBound    int
	EpisodesUnbound  int
	EventsIgnored    int
	AssetsDownloaded int
	AssetsURLOnly    int
	AssetsSkipped    int
	Output           string
	Written          bool
	Errors           []string
	Duration         time.Duration
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) countAsset(ref assets.Ref) {
	switch ref.Status {
	case assets.StatusDownloaded:
		r.AssetsDownloaded++
	case assets.StatusSkipped:
		r.AssetsSkipped++
	default:
		r.AssetsURLOnly++
	}
	if ref.Err != nil {
		r.AddErrorf("asset %s: %v", ref.RelPath, ref.Err)
	}
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"rounds=%d empty=%d failed=%d episodes_bound=%d episodes_unbound=%d ignored=%d "+
			"assets_downloaded=%d assets_url_only=%d assets_skipped=%d errors=%d duration=%s",
		r.RoundsDiscovered, r.RoundsEmpty, r.RoundsFailed,
		r.EpisodesBound, r.EpisodesUnbound, r.EventsIgnored,
		r.AssetsDownloaded, r.AssetsURLOnly, r.AssetsSkipped,
		len(r.Errors), r.Duration.Round(time.Millisecond),
	)
}
