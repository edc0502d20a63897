// Package constants defines shared configuration constants.
package constants

import "time"

var (
	ConfigFile = "config.yaml"

	DefaultDir = ".andperf"

	// DefaultADBPath is resolved through $PATH.
	DefaultADBPath = "adb"

	// DefaultSystraceToolPath is where the Android SDK installs systrace on macOS.
	DefaultSystraceToolPath = "~/Library/Android/sdk/platform-tools/systrace/systrace.py"

	DefaultLogLevel = "warn"
)

const (
	// DefaultStatInterval is the thread CPU sampling window.
	DefaultStatInterval = 10 * time.Second

	// DefaultFPSInterval is the wait between a gfxinfo reset and the next dump.
	DefaultFPSInterval = 2 * time.Second

	// DefaultMemInfoPeriod is the meminfo trend sampling period.
	DefaultMemInfoPeriod = 1 * time.Second

	// MaxConcurrentTaskQueries caps in-flight thread stat reads per capture.
	MaxConcurrentTaskQueries = 20

	// MinContributionShare is the report cutoff for a thread's share of
	// process CPU time.
	MinContributionShare = 0.01

	// FrameBudgetMs is the render budget of one frame at 60fps.
	FrameBudgetMs = 17.0

	// TargetFPS is the refresh rate the jank estimate is scaled to.
	TargetFPS = 60

	// SystraceSeconds is the capture length passed to systrace.
	SystraceSeconds = 10
)
