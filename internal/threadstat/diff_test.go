package threadstat

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_SingleThreadWindow(t *testing.T) {
	before := &ProcessSample{
		ProcessName: "com.example.app", PID: "100", UserTicks: 500, KernelTicks: 200,
		Threads: []ThreadSample{{Name: "(main)", TID: "5", UserTicks: 50, KernelTicks: 20}},
	}
	after := &ProcessSample{
		ProcessName: "com.example.app", PID: "100", UserTicks: 700, KernelTicks: 260,
		Threads: []ThreadSample{{Name: "(main)", TID: "5", UserTicks: 90, KernelTicks: 40}},
	}

	win, err := Diff(before, after)
	require.NoError(t, err)

	assert.Equal(t, int64(200), win.DeltaUser)
	assert.Equal(t, int64(60), win.DeltaKernel)
	assert.Equal(t, int64(260), win.DeltaTotal)
	require.Len(t, win.Contributions, 1)

	c := win.Contributions[0]
	assert.Equal(t, int64(40), c.DeltaUser)
	assert.InDelta(t, 0.20, c.UserShare, 1e-9)
	assert.Equal(t, int64(20), c.DeltaKernel)
	assert.InDelta(t, 0.333, c.KernelShare, 1e-3)
	assert.Equal(t, int64(60), c.DeltaTotal)
	assert.InDelta(t, 0.231, c.TotalShare, 1e-3)
}

func TestDiff_StalePID(t *testing.T) {
	before := &ProcessSample{ProcessName: "app", PID: "100"}
	after := &ProcessSample{ProcessName: "app", PID: "101"}

	win, err := Diff(before, after)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStaleProcessSample))
	assert.Nil(t, win)

	var buf bytes.Buffer
	rows, err := DiffAndReport(&buf, before, after)
	require.ErrorIs(t, err, ErrStaleProcessSample)
	assert.Nil(t, rows)
	assert.Zero(t, buf.Len(), "no output on a stale window")
}

func TestDiff_NewAndExitedThreads(t *testing.T) {
	before := &ProcessSample{
		PID: "100", UserTicks: 0, KernelTicks: 0,
		Threads: []ThreadSample{
			{Name: "(main)", TID: "5", UserTicks: 10, KernelTicks: 10},
			{Name: "(gone)", TID: "6", UserTicks: 30, KernelTicks: 30},
		},
	}
	after := &ProcessSample{
		PID: "100", UserTicks: 100, KernelTicks: 100,
		Threads: []ThreadSample{
			{Name: "(main)", TID: "5", UserTicks: 20, KernelTicks: 20},
			{Name: "(fresh)", TID: "9", UserTicks: 33, KernelTicks: 7},
		},
	}

	win, err := Diff(before, after)
	require.NoError(t, err)
	require.Len(t, win.Contributions, 2)

	fresh := win.Contributions[0]
	assert.Equal(t, "9", fresh.TID)
	assert.Equal(t, int64(33), fresh.DeltaUser, "new thread counts from zero")
	assert.Equal(t, int64(7), fresh.DeltaKernel)
	assert.Equal(t, int64(40), fresh.DeltaTotal)

	for _, c := range win.Contributions {
		assert.NotEqual(t, "6", c.TID, "exited thread must be dropped")
	}
}

func TestDiff_SortedByMagnitudeWithCutoff(t *testing.T) {
	before := &ProcessSample{PID: "1"}
	after := &ProcessSample{
		PID: "1", UserTicks: 1000, KernelTicks: 0,
		Threads: []ThreadSample{
			{TID: "1", UserTicks: 5},   // 0.5%
			{TID: "2", UserTicks: 400}, // 40%
			{TID: "3", UserTicks: 100}, // 10%
			{TID: "4", UserTicks: 10},  // 1%
			{TID: "5", UserTicks: 0},
		},
	}
	// A shrinking counter yields a negative share; it ranks by magnitude.
	before.Threads = []ThreadSample{{TID: "5", UserTicks: 200}}

	win, err := Diff(before, after)
	require.NoError(t, err)

	for i := 1; i < len(win.Contributions); i++ {
		prev := math.Abs(win.Contributions[i-1].TotalShare)
		cur := math.Abs(win.Contributions[i].TotalShare)
		assert.GreaterOrEqual(t, prev, cur)
	}

	rows := win.Significant(0.01)
	tids := make([]string, len(rows))
	for i, r := range rows {
		tids[i] = r.TID
		assert.GreaterOrEqual(t, math.Abs(r.TotalShare), 0.01)
	}
	assert.Equal(t, []string{"2", "5", "3", "4"}, tids)
	assert.InDelta(t, -0.2, rows[1].TotalShare, 1e-9)
}

func TestDiff_ZeroProcessDelta(t *testing.T) {
	sample := &ProcessSample{
		PID: "1", UserTicks: 10, KernelTicks: 10,
		Threads: []ThreadSample{{TID: "1", UserTicks: 4, KernelTicks: 4}},
	}

	win, err := Diff(sample, sample)
	require.NoError(t, err)
	require.Len(t, win.Contributions, 1)
	assert.Zero(t, win.Contributions[0].TotalShare)
	assert.Empty(t, win.Significant(0.01))
}

func TestDiff_ZeroBaseline(t *testing.T) {
	after := &ProcessSample{
		ProcessName: "app", PID: "7", UserTicks: 300, KernelTicks: 100,
		Threads: []ThreadSample{{Name: "(main)", TID: "7", UserTicks: 150, KernelTicks: 50}},
	}

	win, err := Diff(ZeroBaseline(after), after)
	require.NoError(t, err)
	assert.Equal(t, int64(400), win.DeltaTotal)
	assert.InDelta(t, 0.5, win.Contributions[0].TotalShare, 1e-9)
}
