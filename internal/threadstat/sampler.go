package threadstat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/andperf/andperf/internal/adb"
	"github.com/andperf/andperf/internal/constants"
	"github.com/andperf/andperf/internal/safe"
	"github.com/andperf/andperf/internal/sys/proc"
	"github.com/andperf/andperf/internal/sys/shell"
)

// Sampler captures process and thread CPU accounting from a device.
type Sampler struct {
	runner      shell.Runner
	cmds        adb.Commands
	logger      zerolog.Logger
	concurrency int
}

// NewSampler creates a sampler that issues its queries through runner.
func NewSampler(runner shell.Runner, cmds adb.Commands, logger zerolog.Logger) *Sampler {
	return &Sampler{
		runner:      runner,
		cmds:        cmds,
		logger:      logger.With().Str("component", "threadstat").Logger(),
		concurrency: constants.MaxConcurrentTaskQueries,
	}
}

// CaptureProcess resolves processName to a pid and captures the process
// counters plus the counters of every live thread.
//
// Thread records are read concurrently. A thread that cannot be read (it
// exited mid-scan, for instance) is logged and left out of the sample.
func (s *Sampler) CaptureProcess(ctx context.Context, processName string) (*ProcessSample, error) {
	start := time.Now()

	listing, err := s.runner.Execute(ctx, s.cmds.ProcessList())
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	pid, ok := proc.FindPID(strings.TrimSpace(listing), processName)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not running", ErrProcessNotFound, processName)
	}

	tasks, err := s.runner.Execute(ctx, s.cmds.TaskList(pid))
	if err != nil {
		return nil, fmt.Errorf("failed to list threads of pid %s: %w", pid, err)
	}
	tids := proc.ParseTaskIDs(tasks)

	threads := s.captureThreads(ctx, pid, tids)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := s.runner.Execute(ctx, s.cmds.ProcessStat(pid))
	if err != nil {
		return nil, fmt.Errorf("failed to read stat of pid %s: %w", pid, err)
	}
	stat, err := proc.ParseStat(record)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stat of pid %s: %w", pid, err)
	}

	sample := &ProcessSample{
		ProcessName: processName,
		PID:         pid,
		UserTicks:   ticks(stat.UTime),
		KernelTicks: ticks(stat.STime),
		Threads:     threads,
		CapturedAt:  start,
		Latency:     time.Since(start),
	}

	s.logger.Info().
		Str("process", processName).
		Str("pid", pid).
		Int("threads", len(threads)).
		Int("skipped", len(tids)-len(threads)).
		Dur("latency", sample.Latency).
		Msg("Captured process sample")

	return sample, nil
}

// captureThreads reads every thread record with at most s.concurrency
// queries in flight. Failed reads are dropped; they never cancel siblings.
func (s *Sampler) captureThreads(ctx context.Context, pid string, tids []string) []ThreadSample {
	results := make([]ThreadSample, len(tids))
	captured := make([]bool, len(tids))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, tid := range tids {
		g.Go(func() error {
			sample, err := s.captureThread(ctx, pid, tid)
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("pid", pid).
					Str("tid", tid).
					Msg("Skipping thread")
				return nil
			}
			results[i] = sample
			captured[i] = true
			return nil
		})
	}
	_ = g.Wait()

	threads := make([]ThreadSample, 0, len(tids))
	for i, ok := range captured {
		if ok {
			threads = append(threads, results[i])
		}
	}
	return threads
}

func (s *Sampler) captureThread(ctx context.Context, pid, tid string) (ThreadSample, error) {
	record, err := s.runner.Execute(ctx, s.cmds.TaskStat(pid, tid))
	if err != nil {
		return ThreadSample{}, err
	}

	stat, err := proc.ParseStat(record)
	if err != nil {
		return ThreadSample{}, err
	}

	return ThreadSample{
		Name:        stat.Name,
		TID:         tid,
		UserTicks:   ticks(stat.UTime),
		KernelTicks: ticks(stat.STime),
	}, nil
}

// RunComparison captures processName, waits interval and captures it again,
// then diffs the two samples. With interval <= 0 a single capture is diffed
// against a zero baseline, which reports usage since process start.
//
// Cancelling ctx during the wait aborts the comparison without a result.
func (s *Sampler) RunComparison(ctx context.Context, processName string, interval time.Duration) (*Window, error) {
	logger := s.logger.With().
		Str("run_id", uuid.NewString()).
		Str("process", processName).
		Logger()

	before, err := s.CaptureProcess(ctx, processName)
	if err != nil {
		return nil, err
	}

	if interval <= 0 {
		logger.Debug().Msg("No interval, diffing against zero baseline")
		return Diff(ZeroBaseline(before), before)
	}

	logger.Debug().Dur("interval", interval).Msg("Waiting for second sample")

	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		logger.Debug().Msg("Comparison cancelled")
		return nil, ctx.Err()
	case <-timer.C:
	}

	after, err := s.CaptureProcess(ctx, processName)
	if err != nil {
		return nil, err
	}

	return Diff(before, after)
}

func ticks(v uint64) int64 {
	n, _ := safe.Uint64ToInt64(v)
	return n
}
