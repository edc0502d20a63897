// Package threadstat attributes a process's CPU time to its threads.
//
// Two ProcessSample captures taken an interval apart form a sampling window.
// Diff turns a window into per-thread Contributions, each expressed as a
// share of the process-level delta:
//
//	before := sampler.CaptureProcess(ctx, "com.example.app")
//	// ... interval ...
//	after := sampler.CaptureProcess(ctx, "com.example.app")
//	window, err := threadstat.Diff(before, after)
//
// Process and thread counters are read independently, so thread shares do
// not necessarily add up to 100%.
package threadstat

import (
	"errors"
	"time"
)

var (
	// ErrProcessNotFound is returned when no running process has the
	// requested name.
	ErrProcessNotFound = errors.New("process not found")

	// ErrStaleProcessSample is returned when the two samples of a window
	// belong to different process instances.
	ErrStaleProcessSample = errors.New("stale process sample")
)

// ThreadSample is one thread's cumulative CPU accounting.
type ThreadSample struct {
	Name        string `json:"name"`
	TID         string `json:"tid"`
	UserTicks   int64  `json:"user_ticks"`
	KernelTicks int64  `json:"kernel_ticks"`
}

// ProcessSample is a point-in-time capture of a process and its threads.
type ProcessSample struct {
	ProcessName string
	PID         string
	// UserTicks and KernelTicks are process-level counters, read separately
	// from the thread records.
	UserTicks   int64
	KernelTicks int64
	Threads     []ThreadSample

	CapturedAt time.Time
	// Latency is how long the capture took. Informational only.
	Latency time.Duration
}

// ZeroBaseline returns an all-zero sample for the same process instance as
// s, so that diffing against it reports usage since process start.
func ZeroBaseline(s *ProcessSample) *ProcessSample {
	return &ProcessSample{
		ProcessName: s.ProcessName,
		PID:         s.PID,
	}
}

// findByTID returns the thread with the given id, scanning linearly.
func findByTID(threads []ThreadSample, tid string) (ThreadSample, bool) {
	for _, t := range threads {
		if t.TID == tid {
			return t, true
		}
	}
	return ThreadSample{}, false
}
