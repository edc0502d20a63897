package adb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/process"
)

// ServerProcess describes a local adb server process.
type ServerProcess struct {
	PID     int32
	Cmdline string
}

// ServerRunning looks for a local adb server process. The adb client starts
// one on demand, so a missing server is informational rather than an error.
func ServerRunning(ctx context.Context, adbPath string) (*ServerProcess, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list local processes: %w", err)
	}

	want := filepath.Base(adbPath)
	if want == "" || want == "." {
		want = "adb"
	}

	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name != want {
			continue
		}

		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil {
			cmdline = name
		}

		return &ServerProcess{PID: p.Pid, Cmdline: cmdline}, nil
	}

	return nil, nil
}
