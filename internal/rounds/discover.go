// Package rounds enumerates the rounds of a league-season that carry events.
package rounds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/sportsmeta/internal/provider"
)

// ErrInvalidRange is returned for a start/stop pair that cannot be probed.
var ErrInvalidRange = errors.New("invalid round range")

// Source is the feed discovery reads from.
type Source interface {
	SeasonEvents(ctx context.Context) ([]provider.Event, error)
	RoundEvents(ctx context.Context, round int) ([]provider.Event, error)
}

// RoundEndpointer is implemented by sources that can say whether RoundEvents
// makes a request of its own. Without a round endpoint every round comes from
// the season schedule, so discovery never requests rounds one by one.
type RoundEndpointer interface {
	HasRoundEndpoint() bool
}

// Options controls which rounds are probed and how.
type Options struct {
	Start int
	Stop  int
	// Fill surfaces empty rounds as warnings instead of debug noise.
	Fill bool
	// Delay separates successive round probes, on top of the client throttle.
	Delay time.Duration
	// SeasonPrefetch buckets the full-season schedule before probing.
	SeasonPrefetch bool
	// SkipProbe disables per-round requests; only prefetched rounds are used.
	SkipProbe bool
}

// Validate checks the round range.
func (o Options) Validate() error {
	if o.Start < 1 {
		return fmt.Errorf("%w: start round %d must be >= 1", ErrInvalidRange, o.Start)
	}
	if o.Stop < o.Start {
		return fmt.Errorf("%w: stop round %d is before start round %d", ErrInvalidRange, o.Stop, o.Start)
	}
	if o.Delay < 0 {
		return fmt.Errorf("%w: round delay %s is negative", ErrInvalidRange, o.Delay)
	}
	return nil
}

// Discover returns the rounds in [Start, Stop] that have events, in
// ascending order. Per-round failures are recorded in the result and never
// abort discovery; only an invalid range returns an error.
func Discover(ctx context.Context, src Source, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}
	buckets := make(map[int][]provider.Event)
	perRound := true
	if re, ok := src.(RoundEndpointer); ok {
		perRound = re.HasRoundEndpoint()
	}
	seasonFailed := false

	// 1. Full-season schedule, mandatory when rounds cannot be fetched alone
	if opts.SeasonPrefetch || !perRound {
		events, err := src.SeasonEvents(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			result.Cancelled = true
			return result, nil
		case err != nil && !perRound:
			seasonFailed = true
			logger.Warn("Season schedule failed and the feed has no round endpoint, skipping all rounds",
				"start", opts.Start, "stop", opts.Stop, "error", err)
			result.AddErrorf("season schedule: %v", err)
		case err != nil:
			logger.Warn("Season prefetch failed, probing rounds individually", "error", err)
			result.AddErrorf("season prefetch: %v", err)
		default:
			result.Prefetched = true
			unnumbered := 0
			for _, e := range events {
				if e.Round == 0 {
					unnumbered++
					continue
				}
				if e.Round < opts.Start || e.Round > opts.Stop {
					continue
				}
				buckets[e.Round] = append(buckets[e.Round], e)
			}
			logger.Info("Season schedule fetched",
				"events", len(events), "rounds", len(buckets), "unnumbered", unnumbered)
		}
	}

	// 2. Per-round fill
	probes := 0
	for n := opts.Start; n <= opts.Stop; n++ {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}
		if events := buckets[n]; len(events) > 0 {
			result.Rounds = append(result.Rounds, Round{Number: n, Events: events})
			continue
		}
		if seasonFailed {
			result.Failed = append(result.Failed, n)
			continue
		}
		if opts.SkipProbe || !perRound {
			result.markEmpty(n, opts.Fill, logger)
			continue
		}

		if probes > 0 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				result.Cancelled = true
				break
			}
		}
		probes++

		events, err := src.RoundEvents(ctx, n)
		if err != nil {
			if ctx.Err() != nil {
				result.Cancelled = true
				break
			}
			logger.Warn("Round fetch failed, skipping", "round", n, "error", err)
			result.Failed = append(result.Failed, n)
			result.AddErrorf("round %d: %v", n, err)
			continue
		}
		if len(events) == 0 {
			result.markEmpty(n, opts.Fill, logger)
			continue
		}
		logger.Debug("Round discovered", "round", n, "events", len(events))
		result.Rounds = append(result.Rounds, Round{Number: n, Events: events})
	}

	if result.Cancelled {
		logger.Warn("Round discovery interrupted", "summary", result.Summary())
	} else {
		logger.Info("Round discovery complete", "summary", result.Summary())
	}
	return result, nil
}

func (r *Result) markEmpty(n int, fill bool, logger *slog.Logger) {
	r.Empty = append(r.Empty, n)
	if fill {
		logger.Warn("Round has no events, skipping", "round", n)
		return
	}
	logger.Debug("Round has no events", "round", n)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
