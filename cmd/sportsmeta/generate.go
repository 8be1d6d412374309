package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/albapepper/sportsmeta/internal/assets"
	"github.com/albapepper/sportsmeta/internal/cache"
	"github.com/albapepper/sportsmeta/internal/config"
	"github.com/albapepper/sportsmeta/internal/pipeline"
	"github.com/albapepper/sportsmeta/internal/provider/sportsdb"
	"github.com/albapepper/sportsmeta/internal/rounds"
	"github.com/albapepper/sportsmeta/internal/sport"
)

const (
	defaultShowPosterTemplate     = "posters/{sport}/{season}/poster.jpg"
	defaultShowBackgroundTemplate = "posters/{sport}/{season}/background.jpg"
)

// generateFlags holds the flags that do not live in config.Config.
type generateFlags struct {
	season     string
	leagueID   int
	roundLabel string

	title     string
	showKey   string
	sortTitle string
	summary   string

	poster                string
	background            string
	seasonPosterTemplate  string
	episodePosterTemplate string

	fill         bool
	skipPrefetch bool
	skipProbe    bool
	verbose      bool
}

func generateCmd() *cobra.Command {
	cfg := config.Load()
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate <sport>",
		Short: "Generate the metadata YAML for one sport season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.verbose || cfg.Debug {
				logLevel.Set(slog.LevelDebug)
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			result, err := runGenerate(ctx, cfg, f, args[0])
			if result != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderSummary(result, shouldColorize(cmd.OutOrStdout())))
				for _, e := range result.Errors {
					logger.Warn("generate error", "error", e)
				}
			}
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.season, "season", "", "Season label as used by TheSportsDB (e.g. 2025 or 2024-2025)")
	fs.IntVar(&f.leagueID, "league-id", 0, "Override the sport's TheSportsDB league ID")
	fs.StringVar(&f.roundLabel, "round-label", "", "Override the round label used in season titles")

	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "TheSportsDB API key")
	fs.StringVar(&cfg.APIVersion, "api-version", cfg.APIVersion, "TheSportsDB API version (v1, v2)")
	fs.StringVar(&cfg.SiteRoot, "site-root", cfg.SiteRoot, "TheSportsDB site root")

	fs.StringVar(&f.title, "title", "", "Show title ({season} is expanded)")
	fs.StringVar(&f.showKey, "show-key", "", "Metadata key of the show (defaults to the title)")
	fs.StringVar(&f.sortTitle, "sort-title", "", "Show sort title")
	fs.StringVar(&f.summary, "summary", "", "Show summary (defaults to the season description)")

	fs.StringVar(&f.poster, "poster", defaultShowPosterTemplate, "Show poster path template or absolute URL")
	fs.StringVar(&f.background, "background", defaultShowBackgroundTemplate, "Show background path template or absolute URL")
	fs.StringVar(&f.seasonPosterTemplate, "season-poster-template", assets.DefaultSeasonPosterTemplate, "Season poster path template")
	fs.StringVar(&f.episodePosterTemplate, "episode-poster-template", assets.DefaultEpisodePosterTemplate, "Episode poster path template")
	fs.StringVar(&cfg.AssetURLBase, "asset-url-base", cfg.AssetURLBase, "Public URL prefix for downloaded artwork")
	fs.StringVar(&cfg.AssetsRoot, "assets-root", cfg.AssetsRoot, "Local directory artwork is written under")
	fs.BoolVar(&cfg.SkipDownload, "skip-asset-download", cfg.SkipDownload, "Only compute artwork URLs")
	fs.IntVar(&cfg.AssetWorkers, "asset-workers", cfg.AssetWorkers, "Concurrent artwork downloads")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Output YAML path (defaults to metadata/<sport>.yml)")

	fs.BoolVar(&cfg.Insecure, "insecure", cfg.Insecure, "Disable TLS certificate verification")
	fs.BoolVar(&cfg.InsecureFallback, "insecure-fallback", cfg.InsecureFallback, "Retry without TLS verification after a certificate error")
	fs.Var(newSecondsValue(&cfg.RequestInterval), "request-interval", "Minimum gap between requests (0 = API tier default)")
	fs.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "Retries for retryable HTTP failures")
	fs.Var(newSecondsValue(&cfg.RetryBackoff), "retry-backoff", "Base retry delay, doubled per attempt")
	fs.Var(newSecondsValue(&cfg.MaxBackoff), "max-backoff", "Upper bound for a single retry delay")
	fs.Var(newSecondsValue(&cfg.Timeout), "timeout", "Per-request timeout")

	fs.IntVar(&cfg.StartRound, "start-round", cfg.StartRound, "First round to probe")
	fs.IntVar(&cfg.StopRound, "stop-round", cfg.StopRound, "Last round to probe")
	fs.Var(newSecondsValue(&cfg.RoundDelay), "round-delay", "Extra delay between round probes")
	fs.BoolVar(&f.fill, "fill", false, "Warn about empty rounds in the range")
	fs.BoolVar(&f.skipPrefetch, "skip-season-prefetch", false, "Do not fetch the full-season schedule first")
	fs.BoolVar(&f.skipProbe, "skip-round-probe", false, "Only use rounds found in the season schedule")

	fs.StringVar(&cfg.SportsFile, "sports-file", cfg.SportsFile, "TOML file with extra or replacement sport definitions")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Debug logging")

	_ = cmd.MarkFlagRequired("season")
	return cmd
}

// runGenerate resolves the sport, validates configuration, wires the feed,
// resolver and pipeline and runs it.
func runGenerate(ctx context.Context, cfg *config.Config, f *generateFlags, sportID string) (*pipeline.Result, error) {
	catalog, err := sport.Load(cfg.SportsFile)
	if err != nil {
		return nil, fmt.Errorf("load sports: %w", err)
	}
	def, err := catalog.Lookup(sportID)
	if err != nil {
		return nil, err
	}
	if f.leagueID > 0 {
		def.LeagueID = f.leagueID
	}
	if label := strings.TrimSpace(f.roundLabel); label != "" {
		def.RoundLabel = label
	}
	if def.LeagueID <= 0 {
		return nil, fmt.Errorf("%w: sport %s has no league ID, pass --league-id", config.ErrInvalid, def.ID)
	}

	season := strings.TrimSpace(f.season)
	if season == "" {
		return nil, fmt.Errorf("%w: --season is required", config.ErrInvalid)
	}
	if strings.TrimSpace(cfg.Output) == "" {
		cfg.Output = filepath.Join("metadata", def.ID+".yml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	version := sportsdb.NormalizeAPIVersion(cfg.APIVersion)
	interval := cfg.RequestInterval
	if interval == 0 {
		interval = sportsdb.DefaultInterval(version)
	}

	runLogger := logger.With("run_id", uuid.NewString(), "sport", def.ID, "season", season)
	runLogger.Info("Generating metadata",
		"league_id", def.LeagueID, "api_version", version, "interval", interval,
		"rounds", fmt.Sprintf("%d-%d", cfg.StartRound, cfg.StopRound), "output", cfg.Output)

	settings := sportsdb.NewSettings(cfg.APIKey, version, cfg.SiteRoot)
	client := sportsdb.NewClient(sportsdb.Options{
		Interval:         interval,
		MaxRetries:       cfg.MaxRetries,
		RetryBackoff:     cfg.RetryBackoff,
		MaxBackoff:       cfg.MaxBackoff,
		Timeout:          cfg.Timeout,
		Insecure:         cfg.Insecure,
		InsecureFallback: cfg.InsecureFallback,
	}, runLogger)
	feedCache := cache.New(true)
	feed := sportsdb.NewFeed(client, settings, def.LeagueID, season, feedCache, runLogger)
	resolver := assets.NewResolver(client, assets.Options{
		Root:         cfg.AssetsRoot,
		PublicBase:   cfg.AssetURLBase,
		SkipDownload: cfg.SkipDownload,
	}, runLogger)

	opts := pipeline.Options{
		Season: season,
		Discovery: rounds.Options{
			Start:          cfg.StartRound,
			Stop:           cfg.StopRound,
			Fill:           f.fill,
			Delay:          cfg.RoundDelay,
			SeasonPrefetch: !f.skipPrefetch,
			SkipProbe:      f.skipProbe,
		},
		ShowKey:                f.showKey,
		Title:                  f.title,
		SortTitle:              f.sortTitle,
		Summary:                f.summary,
		ShowPosterTemplate:     f.poster,
		ShowBackgroundTemplate: f.background,
		SeasonPosterTemplate:   f.seasonPosterTemplate,
		EpisodePosterTemplate:  f.episodePosterTemplate,
		AssetWorkers:           cfg.AssetWorkers,
		Output:                 cfg.Output,
	}
	deps := pipeline.Deps{Feed: feed, Resolver: resolver, Sport: def}
	result, err := pipeline.Run(ctx, deps, opts, runLogger)
	runLogger.Debug("Feed cache", "stats", feedCache.Stats())
	return result, err
}
