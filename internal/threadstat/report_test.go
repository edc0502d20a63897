package threadstat

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffAndReport(t *testing.T) {
	before := &ProcessSample{
		ProcessName: "com.example.app", PID: "100", UserTicks: 500, KernelTicks: 200,
		Threads: []ThreadSample{
			{Name: "(main)", TID: "100", UserTicks: 50, KernelTicks: 20},
			{Name: "(idle)", TID: "103", UserTicks: 7, KernelTicks: 7},
		},
	}
	after := &ProcessSample{
		ProcessName: "com.example.app", PID: "100", UserTicks: 700, KernelTicks: 260,
		Latency: 1500 * time.Millisecond,
		Threads: []ThreadSample{
			{Name: "(main)", TID: "100", UserTicks: 90, KernelTicks: 40},
			{Name: "(RenderThread)", TID: "101", UserTicks: 100, KernelTicks: 30},
			{Name: "(idle)", TID: "103", UserTicks: 8, KernelTicks: 7},
		},
	}

	var buf bytes.Buffer
	rows, err := DiffAndReport(&buf, before, after)
	require.NoError(t, err)

	require.Len(t, rows, 2, "idle thread is below the 1% cutoff")
	assert.Equal(t, "101", rows[0].TID)
	assert.Equal(t, "100", rows[1].TID)

	out := buf.String()
	assert.Contains(t, out, "proc: com.example.app (pid 100)")
	assert.Contains(t, out, "thread count: 3")
	assert.Contains(t, out, "proc_utime: 200")
	assert.Contains(t, out, "proc_stime: 60")
	assert.Contains(t, out, "dump cost: 1.50s")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "U+S TIME")
	assert.NotContains(t, out, "(idle)")

	var mainLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "(main)") {
			mainLine = line
		}
	}
	require.NotEmpty(t, mainLine)
	assert.Contains(t, mainLine, "20.00%")
	assert.Contains(t, mainLine, "33.33%")
	assert.Contains(t, mainLine, "23.08%")
	assert.True(t, strings.HasSuffix(mainLine, strings.Repeat("=", 23)))
}

func TestWriteReport_NoRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, &Window{ProcessName: "app", PID: "1"}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "thread count: 0")
}
