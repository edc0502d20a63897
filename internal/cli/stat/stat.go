// Package stat implements the 'andperf stat-thread' command.
package stat

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andperf/andperf/internal/cli/helpers"
	"github.com/andperf/andperf/internal/constants"
	"github.com/andperf/andperf/internal/threadstat"
)

// NewStatThreadCmd creates the stat-thread command.
func NewStatThreadCmd(opts *helpers.Options) *cobra.Command {
	var (
		format   string
		all      bool
		interval *helpers.IntervalFlag
	)

	cmd := &cobra.Command{
		Use:   "stat-thread",
		Short: "Show each thread's share of an app's CPU time",
		Long: `Capture per-thread CPU accounting twice, --interval apart, and rank the
app's threads by their share of the process CPU time over that window.

Threads below 1% are omitted unless --all is set. With --interval 0 the
report covers the time since the process started.

Shares are computed against the process counters, which the kernel keeps
separately from the thread counters, so they need not add up to 100%.`,
		Example: `  andperf stat-thread --app com.example.app
  andperf stat-thread --interval 30 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, helpers.AllFormats); err != nil {
				return err
			}

			env, err := opts.Setup(cmd)
			if err != nil {
				return err
			}
			app, err := env.App()
			if err != nil {
				return err
			}

			window := interval.Resolve(env.Config.Sampling.StatInterval)
			if window > 0 && format == string(helpers.FormatTable) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "sampling %s for %s...\n", app, window)
			}

			sampler := threadstat.NewSampler(env.Runner, env.Cmds, env.Logger)
			win, err := sampler.RunComparison(cmd.Context(), app, window)
			if err != nil {
				return fmt.Errorf("stat-thread %s: %w", app, err)
			}

			rows := win.Contributions
			if !all {
				rows = win.Significant(constants.MinContributionShare)
			}

			if format == string(helpers.FormatTable) {
				return threadstat.WriteReport(env.Out, win, rows)
			}
			return env.Format(format, rows)
		},
	}

	interval = helpers.AddIntervalFlag(cmd.Flags(), "interval", constants.DefaultStatInterval,
		"Sampling window in seconds (default from config, 10s)")
	cmd.Flags().BoolVar(&all, "all", false, "Include threads below the 1% cutoff")
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.AllFormats)

	return cmd
}
