package gfx

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andperf/andperf/internal/adb"
	"github.com/andperf/andperf/internal/sys/shell"
)

// ErrTrendRestarted is yielded when a trend sequence is iterated a second
// time. The reset baseline of the first run is gone, so start a new Trend.
var ErrTrendRestarted = errors.New("fps trend already consumed")

// Info is one gfxinfo capture.
type Info struct {
	Raw    string
	Frames []Frame
	FPS    int
}

// Analyzer queries and resets an app's frame statistics.
type Analyzer struct {
	runner shell.Runner
	cmds   adb.Commands
	logger zerolog.Logger
}

// NewAnalyzer creates an analyzer that issues its queries through runner.
func NewAnalyzer(runner shell.Runner, cmds adb.Commands, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		runner: runner,
		cmds:   cmds,
		logger: logger.With().Str("component", "gfx").Logger(),
	}
}

// Reset clears the app's frame statistics.
func (a *Analyzer) Reset(ctx context.Context, app string) error {
	if _, err := a.runner.Execute(ctx, a.cmds.GfxReset(app)); err != nil {
		return fmt.Errorf("failed to reset gfxinfo for %s: %w", app, err)
	}
	return nil
}

// Dump captures and parses the app's frame statistics.
func (a *Analyzer) Dump(ctx context.Context, app string) (*Info, error) {
	raw, err := a.runner.Execute(ctx, a.cmds.GfxInfo(app))
	if err != nil {
		return nil, fmt.Errorf("failed to dump gfxinfo for %s: %w", app, err)
	}

	frames, err := ParseHistogram(raw)
	if err != nil {
		return nil, fmt.Errorf("gfxinfo for %s: %w", app, err)
	}

	return &Info{
		Raw:    raw,
		Frames: frames,
		FPS:    ComputeFPS(frames),
	}, nil
}

// Trend returns an unbounded, single-use sequence of fps samples. Each step
// resets the histogram, waits interval, then dumps and scores it.
//
// Cancelling ctx ends the sequence between steps or during the wait; a
// query already issued runs to completion. The app's histogram may be left
// un-reset when the sequence ends. The first failure is yielded and ends
// the sequence; there is no retry.
func (a *Analyzer) Trend(ctx context.Context, app string, interval time.Duration) iter.Seq2[int, error] {
	var consumed atomic.Bool
	logger := a.logger.With().
		Str("run_id", uuid.NewString()).
		Str("app", app).
		Logger()

	return func(yield func(int, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(0, ErrTrendRestarted)
			return
		}

		queryCtx := context.WithoutCancel(ctx)
		for i := 0; ; i++ {
			if ctx.Err() != nil {
				logger.Debug().Int("samples", i).Msg("FPS trend cancelled")
				return
			}

			if err := a.Reset(queryCtx, app); err != nil {
				yield(0, err)
				return
			}

			if !wait(ctx, interval) {
				logger.Debug().Int("samples", i).Msg("FPS trend cancelled")
				return
			}

			info, err := a.Dump(queryCtx, app)
			if err != nil {
				yield(0, err)
				return
			}

			logger.Debug().
				Int("sample", i).
				Int("fps", info.FPS).
				Int("buckets", len(info.Frames)).
				Msg("FPS sample")

			if !yield(info.FPS, nil) {
				return
			}
		}
	}
}

// wait blocks for d, returning false if ctx is cancelled first.
func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
