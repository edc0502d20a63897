package threadstat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andperf/andperf/internal/adb"
	"github.com/andperf/andperf/internal/sys/shell"
	"github.com/andperf/andperf/internal/testutil"
)

const app = "com.example.app"

var cmds = adb.Commands{}

func psListing(pid string) string {
	return "UID PID PPID C STIME TTY TIME CMD\n" +
		"root 1 0 0 10:00 ? 00:00:01 init\n" +
		"u0_a77 " + pid + " 600 2 10:01 ? 00:00:09 " + app + "\n" +
		"u0_a77 999 600 0 10:01 ? 00:00:00 " + app + ":remote\n"
}

func statLine(id, name string, utime, stime int) string {
	return fmt.Sprintf("%s (%s) S 600 600 0 0 -1 4194560 100 0 0 0 %d %d 0 0 20 0 12 0\n", id, name, utime, stime)
}

func TestCaptureProcess(t *testing.T) {
	runner := testutil.NewRunner().
		Set(cmds.ProcessList(), psListing("100")).
		Set(cmds.TaskList("100"), "100\n101\n102\n").
		Set(cmds.TaskStat("100", "100"), statLine("100", "main", 50, 20)).
		Set(cmds.TaskStat("100", "101"), statLine("101", "RenderThread", 30, 5)).
		Fail(cmds.TaskStat("100", "102")).
		Set(cmds.ProcessStat("100"), statLine("100", "main", 500, 200))

	logger, logs := testutil.NewCapturingLogger()
	sampler := NewSampler(runner, cmds, logger)

	ctx, cancel := testutil.NewTestContext()
	defer cancel()

	sample, err := sampler.CaptureProcess(ctx, app)
	require.NoError(t, err)

	assert.Equal(t, app, sample.ProcessName)
	assert.Equal(t, "100", sample.PID)
	assert.Equal(t, int64(500), sample.UserTicks)
	assert.Equal(t, int64(200), sample.KernelTicks)
	assert.Positive(t, sample.Latency)

	require.Len(t, sample.Threads, 2, "failed thread query is excluded")
	mainThread, ok := findByTID(sample.Threads, "100")
	require.True(t, ok)
	assert.Equal(t, ThreadSample{Name: "(main)", TID: "100", UserTicks: 50, KernelTicks: 20}, mainThread)

	assert.Contains(t, logs.String(), "Skipping thread")
	assert.Contains(t, logs.String(), `"tid":"102"`)
}

func TestCaptureProcess_NotFound(t *testing.T) {
	runner := testutil.NewRunner().Set(cmds.ProcessList(), psListing("100"))
	sampler := NewSampler(runner, cmds, testutil.NewTestLogger(t))

	_, err := sampler.CaptureProcess(context.Background(), "com.example")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProcessNotFound))
}

func TestCaptureProcess_CommandFailurePropagates(t *testing.T) {
	runner := testutil.NewRunner().
		Set(cmds.ProcessList(), psListing("100")).
		Set(cmds.TaskList("100"), "100\n").
		Set(cmds.TaskStat("100", "100"), statLine("100", "main", 1, 1)).
		Fail(cmds.ProcessStat("100"))
	sampler := NewSampler(runner, cmds, testutil.NewTestLogger(t))

	_, err := sampler.CaptureProcess(context.Background(), app)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shell.ErrCommandExecutionFailed))

	var cmdErr *shell.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, cmds.ProcessStat("100"), cmdErr.Command)
}

func TestCaptureProcess_BoundedConcurrency(t *testing.T) {
	const threadCount = 60

	runner := testutil.NewRunner().
		Set(cmds.ProcessList(), psListing("100")).
		Set(cmds.ProcessStat("100"), statLine("100", "main", 1, 1))

	tids := make([]string, threadCount)
	for i := range tids {
		tid := strconv.Itoa(200 + i)
		tids[i] = tid
		runner.Set(cmds.TaskStat("100", tid), statLine(tid, "worker", i, i))
	}
	runner.Set(cmds.TaskList("100"), strings.Join(tids, "\n"))

	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	runner.OnExecute = func(command string) {
		if !strings.Contains(command, "/task/") {
			return
		}
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
	}

	sampler := NewSampler(runner, cmds, testutil.NewTestLogger(t))
	sample, err := sampler.CaptureProcess(context.Background(), app)
	require.NoError(t, err)

	assert.Len(t, sample.Threads, threadCount)
	assert.LessOrEqual(t, peak, 20)
	assert.Greater(t, peak, 1)
}

func TestRunComparison(t *testing.T) {
	runner := testutil.NewRunner().
		Set(cmds.ProcessList(), psListing("100")).
		Set(cmds.TaskList("100"), "100\n101\n", "100\n101\n102\n").
		Set(cmds.TaskStat("100", "100"), statLine("100", "main", 50, 20), statLine("100", "main", 90, 40)).
		Set(cmds.TaskStat("100", "101"), statLine("101", "RenderThread", 10, 0), statLine("101", "RenderThread", 110, 10)).
		Set(cmds.TaskStat("100", "102"), statLine("102", "OkHttp", 50, 10)).
		Set(cmds.ProcessStat("100"), statLine("100", "main", 500, 200), statLine("100", "main", 700, 260))

	sampler := NewSampler(runner, cmds, testutil.NewTestLogger(t))
	win, err := sampler.RunComparison(context.Background(), app, 10*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, int64(200), win.DeltaUser)
	assert.Equal(t, int64(60), win.DeltaKernel)
	assert.Equal(t, 3, win.ThreadCount)

	tids := make([]string, 0, len(win.Contributions))
	for _, c := range win.Contributions {
		tids = append(tids, c.TID)
	}
	// 101: 110/260, 100: 60/260, 102 (new): 60/260.
	assert.Equal(t, []string{"101", "100", "102"}, tids)
	assert.Equal(t, int64(60), win.Contributions[2].DeltaTotal)
}

func TestRunComparison_NoInterval(t *testing.T) {
	runner := testutil.NewRunner().
		Set(cmds.ProcessList(), psListing("100")).
		Set(cmds.TaskList("100"), "100\n").
		Set(cmds.TaskStat("100", "100"), statLine("100", "main", 30, 10)).
		Set(cmds.ProcessStat("100"), statLine("100", "main", 60, 20))

	sampler := NewSampler(runner, cmds, testutil.NewTestLogger(t))
	win, err := sampler.RunComparison(context.Background(), app, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, runner.Count(cmds.ProcessList()), "a single capture")
	assert.Equal(t, int64(80), win.DeltaTotal)
	assert.InDelta(t, 0.5, win.Contributions[0].TotalShare, 1e-9)
}

func TestRunComparison_StalePID(t *testing.T) {
	runner := testutil.NewRunner().
		Set(cmds.ProcessList(), psListing("100"), psListing("200")).
		Set(cmds.TaskList("100"), "100\n").
		Set(cmds.TaskList("200"), "200\n").
		Set(cmds.TaskStat("100", "100"), statLine("100", "main", 1, 1)).
		Set(cmds.TaskStat("200", "200"), statLine("200", "main", 1, 1)).
		Set(cmds.ProcessStat("100"), statLine("100", "main", 1, 1)).
		Set(cmds.ProcessStat("200"), statLine("200", "main", 1, 1))

	sampler := NewSampler(runner, cmds, testutil.NewTestLogger(t))
	_, err := sampler.RunComparison(context.Background(), app, time.Millisecond)
	require.ErrorIs(t, err, ErrStaleProcessSample)
}

func TestRunComparison_CancelDuringWait(t *testing.T) {
	runner := testutil.NewRunner().
		Set(cmds.ProcessList(), psListing("100")).
		Set(cmds.TaskList("100"), "100\n").
		Set(cmds.TaskStat("100", "100"), statLine("100", "main", 1, 1)).
		Set(cmds.ProcessStat("100"), statLine("100", "main", 1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(20*time.Millisecond, cancel)

	sampler := NewSampler(runner, cmds, testutil.NewTestLogger(t))
	win, err := sampler.RunComparison(ctx, app, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, win)
	assert.Equal(t, 1, runner.Count(cmds.ProcessList()), "second capture never starts")
}
