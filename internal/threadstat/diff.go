package threadstat

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/andperf/andperf/internal/safe"
)

// Contribution is one thread's CPU consumption over a sampling window.
// Shares are fractions of the matching process-level delta.
type Contribution struct {
	Name        string  `json:"name" yaml:"name" header:"NAME"`
	TID         string  `json:"tid" yaml:"tid" header:"TID"`
	DeltaUser   int64   `json:"delta_user" yaml:"delta_user" header:"UTIME"`
	UserShare   float64 `json:"user_share" yaml:"user_share" header:"UTIME_SHARE"`
	DeltaKernel int64   `json:"delta_kernel" yaml:"delta_kernel" header:"STIME"`
	KernelShare float64 `json:"kernel_share" yaml:"kernel_share" header:"STIME_SHARE"`
	DeltaTotal  int64   `json:"delta_total" yaml:"delta_total" header:"TOTAL"`
	TotalShare  float64 `json:"total_share" yaml:"total_share" header:"TOTAL_SHARE"`
}

// Window is the result of diffing two samples of the same process.
type Window struct {
	ProcessName string
	PID         string
	// ThreadCount is the number of live threads in the later sample.
	ThreadCount int

	DeltaUser   int64
	DeltaKernel int64
	DeltaTotal  int64

	// Contributions holds one entry per thread of the later sample, sorted
	// by descending |TotalShare|.
	Contributions []Contribution

	// Latency is the capture time of the later sample.
	Latency time.Duration
}

// Diff computes per-thread contributions between two samples of the same
// process. Threads missing from before count from zero; threads missing
// from after are dropped.
func Diff(before, after *ProcessSample) (*Window, error) {
	if before.PID != after.PID {
		return nil, fmt.Errorf("%w: %s was pid %s, now pid %s",
			ErrStaleProcessSample, after.ProcessName, before.PID, after.PID)
	}

	w := &Window{
		ProcessName: after.ProcessName,
		PID:         after.PID,
		ThreadCount: len(after.Threads),
		DeltaUser:   after.UserTicks - before.UserTicks,
		DeltaKernel: after.KernelTicks - before.KernelTicks,
		Latency:     after.Latency,
	}
	w.DeltaTotal = w.DeltaUser + w.DeltaKernel

	w.Contributions = make([]Contribution, 0, len(after.Threads))
	for _, task := range after.Threads {
		base, _ := findByTID(before.Threads, task.TID)

		dUser := task.UserTicks - base.UserTicks
		dKernel := task.KernelTicks - base.KernelTicks
		dTotal := dUser + dKernel

		w.Contributions = append(w.Contributions, Contribution{
			Name:        task.Name,
			TID:         task.TID,
			DeltaUser:   dUser,
			UserShare:   safe.Ratio(dUser, w.DeltaUser),
			DeltaKernel: dKernel,
			KernelShare: safe.Ratio(dKernel, w.DeltaKernel),
			DeltaTotal:  dTotal,
			TotalShare:  safe.Ratio(dTotal, w.DeltaTotal),
		})
	}

	// Counters can shrink, so shares may be negative; rank by magnitude.
	sort.SliceStable(w.Contributions, func(i, j int) bool {
		a := math.Abs(w.Contributions[i].TotalShare)
		b := math.Abs(w.Contributions[j].TotalShare)
		if a != b {
			return a > b
		}
		return w.Contributions[i].TID < w.Contributions[j].TID
	})

	return w, nil
}

// Significant returns the leading contributions whose |TotalShare| is at
// least threshold. Rows below the cutoff are omitted.
func (w *Window) Significant(threshold float64) []Contribution {
	for i, c := range w.Contributions {
		if math.Abs(c.TotalShare) < threshold {
			return w.Contributions[:i]
		}
	}
	return w.Contributions
}
