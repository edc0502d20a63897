package meminfo

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andperf/andperf/internal/adb"
	"github.com/andperf/andperf/internal/sys/shell"
)

// Reader dumps an app's meminfo through a shell.Runner.
type Reader struct {
	runner shell.Runner
	cmds   adb.Commands
	logger zerolog.Logger
}

// NewReader creates a meminfo reader.
func NewReader(runner shell.Runner, cmds adb.Commands, logger zerolog.Logger) *Reader {
	return &Reader{
		runner: runner,
		cmds:   cmds,
		logger: logger.With().Str("component", "meminfo").Logger(),
	}
}

// Dump captures and parses the app's memory summary.
func (r *Reader) Dump(ctx context.Context, app string) (*Snapshot, error) {
	raw, err := r.runner.Execute(ctx, r.cmds.MemInfo(app))
	if err != nil {
		return nil, fmt.Errorf("failed to dump meminfo for %s: %w", app, err)
	}

	snap, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("meminfo for %s: %w", app, err)
	}
	return snap, nil
}

// Trend dumps immediately and then once every period until the consumer
// stops or ctx is cancelled. A dump in flight is not interrupted. The first
// failure is yielded and ends the sequence.
func (r *Reader) Trend(ctx context.Context, app string, period time.Duration) iter.Seq2[*Snapshot, error] {
	return func(yield func(*Snapshot, error) bool) {
		logger := r.logger.With().
			Str("run_id", uuid.NewString()).
			Str("app", app).
			Logger()

		queryCtx := context.WithoutCancel(ctx)
		for i := 0; ; i++ {
			if ctx.Err() != nil {
				logger.Debug().Int("samples", i).Msg("Meminfo trend cancelled")
				return
			}

			snap, err := r.Dump(queryCtx, app)
			if err != nil {
				yield(nil, err)
				return
			}

			logger.Debug().
				Int("sample", i).
				Float64("total_mb", snap.Total).
				Msg("Meminfo sample")

			if !yield(snap, nil) {
				return
			}

			timer := time.NewTimer(period)
			select {
			case <-ctx.Done():
				timer.Stop()
				logger.Debug().Int("samples", i+1).Msg("Meminfo trend cancelled")
				return
			case <-timer.C:
			}
		}
	}
}
