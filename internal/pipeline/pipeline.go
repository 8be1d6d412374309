// Package pipeline composes discovery, normalization, asset resolution and
// emission into one generation run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/albapepper/sportsmeta/internal/assets"
	"github.com/albapepper/sportsmeta/internal/emit"
	"github.com/albapepper/sportsmeta/internal/normalize"
	"github.com/albapepper/sportsmeta/internal/rounds"
	"github.com/albapepper/sportsmeta/internal/sport"
)

// Feed is the upstream the pipeline reads from.
type Feed interface {
	rounds.Source
	SeasonDescription(ctx context.Context) (string, error)
}

// Deps holds the collaborators of a run.
type Deps struct {
	Feed     Feed
	Resolver *assets.Resolver
	Sport    sport.Definition
}

// Options configures one run. Title, SortTitle and the templates may use
// {season}; templates also take the asset tokens.
type Options struct {
	Season    string
	Discovery rounds.Options

	ShowKey   string
	Title     string
	SortTitle string
	Summary   string

	ShowPosterTemplate     string
	ShowBackgroundTemplate string
	SeasonPosterTemplate   string
	EpisodePosterTemplate  string
	AssetWorkers           int

	Output string
}

type assetSlot struct {
	season, episode int // -1 for show-level artwork
	background      bool
}

// Run generates the metadata document. Round and asset failures are
// recorded in the result; only an invalid configuration, cancellation or an
// emit failure returns an error, and in those cases the previous output is
// left untouched.
func Run(ctx context.Context, deps Deps, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	result := &Result{Output: opts.Output}
	def := deps.Sport

	// 1. Discovery
	found, err := rounds.Discover(ctx, deps.Feed, opts.Discovery, logger)
	if err != nil {
		return result, err
	}
	result.RoundsDiscovered = len(found.Rounds)
	result.RoundsEmpty = len(found.Empty)
	result.RoundsFailed = len(found.Failed)
	result.Errors = append(result.Errors, found.Errors...)
	if found.Cancelled || ctx.Err() != nil {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("discovery interrupted: %w", context.Cause(ctx))
	}
	if len(found.Rounds) == 0 {
		logger.Warn("No rounds with events found", "start", opts.Discovery.Start, "stop", opts.Discovery.Stop)
	}

	// 2. Normalization, sequential and in round order
	seasons := make([]normalize.Season, 0, len(found.Rounds))
	for _, r := range found.Rounds {
		s := normalize.Normalize(r, def)
		bound := s.Bound()
		result.EpisodesBound += bound
		result.EpisodesUnbound += len(s.Episodes) - bound
		result.EventsIgnored += s.Ignored
		logger.Debug("Round normalized", "round", r.Number, "variant", s.Variant,
			"bound", bound, "episodes", len(s.Episodes), "ignored", s.Ignored)
		seasons = append(seasons, s)
	}

	// 3. Show-level text
	if t := strings.TrimSpace(opts.Title); t != "" {
		def.ShowTitle = t
	}
	title := def.ShowTitleFor(opts.Season)
	sortTitle := expandSeason(firstNonEmpty(opts.SortTitle, title), opts.Season)
	showKey := firstNonEmpty(opts.ShowKey, title)
	summary := opts.Summary
	if summary == "" {
		desc, err := deps.Feed.SeasonDescription(ctx)
		if err != nil {
			logger.Warn("Season description unavailable", "error", err)
		}
		summary = desc
	}
	if summary == "" {
		summary = fmt.Sprintf("%s %s season with %d rounds mapped from TheSportsDB.",
			def.Name, opts.Season, len(seasons))
	}

	// 4. Assets
	var reqs []assets.Request
	var targets []assetSlot
	add := func(source, template string, tokens assets.Tokens, slot assetSlot) {
		if template == "" {
			return
		}
		reqs = append(reqs, assets.Request{SourceURL: source, RelPath: assets.Expand(template, tokens)})
		targets = append(targets, slot)
	}

	var showPoster, showBackground string
	if len(seasons) > 0 {
		showPoster, showBackground = seasons[0].PosterSource, seasons[0].BackgroundSource
	}
	showTokens := assets.Tokens{Sport: def.ID, Season: opts.Season}
	add(showPoster, opts.ShowPosterTemplate, showTokens, assetSlot{season: -1, episode: -1})
	add(showBackground, opts.ShowBackgroundTemplate, showTokens, assetSlot{season: -1, episode: -1, background: true})
	for i, s := range seasons {
		index := i + 1
		add(s.PosterSource, opts.SeasonPosterTemplate,
			assets.Tokens{Sport: def.ID, Season: opts.Season, Round: index},
			assetSlot{season: i, episode: -1})
		for j, ep := range s.Episodes {
			add(ep.PosterSource, opts.EpisodePosterTemplate,
				assets.Tokens{Sport: def.ID, Season: opts.Season, Round: index, Episode: ep.Index},
				assetSlot{season: i, episode: j})
		}
	}

	refs := deps.Resolver.ResolveAll(ctx, reqs, opts.AssetWorkers)
	if ctx.Err() != nil {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("asset resolution interrupted: %w", context.Cause(ctx))
	}

	// 5. Document
	show := emit.Show{
		Key:       showKey,
		Title:     title,
		SortTitle: sortTitle,
		Summary:   summary,
		Seasons:   make([]emit.Season, len(seasons)),
	}
	for i, s := range seasons {
		out := emit.Season{
			Number:    i + 1,
			Title:     s.Title,
			SortTitle: s.SortTitle,
			Summary:   s.Summary,
			Episodes:  make([]emit.Episode, len(s.Episodes)),
		}
		for j, ep := range s.Episodes {
			e := emit.Episode{Number: ep.Index, Title: ep.Title, Summary: ep.Summary}
			if !ep.Date.IsZero() {
				e.OriginallyAvailable = ep.Date.Format("2006-01-02")
			}
			out.Episodes[j] = e
		}
		show.Seasons[i] = out
	}
	for k, ref := range refs {
		result.countAsset(ref)
		t := targets[k]
		switch {
		case t.season < 0 && t.background:
			show.Background = ref.PublicURL
		case t.season < 0:
			show.Poster = ref.PublicURL
		case t.episode < 0:
			show.Seasons[t.season].Poster = ref.PublicURL
		default:
			show.Seasons[t.season].Episodes[t.episode].Poster = ref.PublicURL
		}
	}

	// 6. Emit
	if err := emit.Write(opts.Output, show); err != nil {
		result.Duration = time.Since(start)
		return result, err
	}
	result.Written = true
	result.Duration = time.Since(start)
	logger.Info("Metadata written", "output", opts.Output, "seasons", len(show.Seasons), "summary", result.Summary())
	return result, nil
}

func expandSeason(s, season string) string {
	return strings.ReplaceAll(s, "{season}", season)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
