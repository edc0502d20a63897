// Package gfx implements the 'andperf gfx' command family.
package gfx

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andperf/andperf/internal/cli/helpers"
	"github.com/andperf/andperf/internal/constants"
	"github.com/andperf/andperf/internal/gfx"
)

// NewGfxCmd creates the gfx command and its subcommands.
func NewGfxCmd(opts *helpers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gfx",
		Short: "Inspect an app's frame rendering statistics",
		Long: `Inspect the frame statistics reported by 'dumpsys gfxinfo'.

The fps figure is a jank-adjusted estimate: every frame that overran the
17ms budget is charged the extra frame slots it consumed.`,
	}

	cmd.AddCommand(newResetCmd(opts))
	cmd.AddCommand(newInfoCmd(opts))
	cmd.AddCommand(newHistCmd(opts))
	cmd.AddCommand(newFPSCmd(opts))

	return cmd
}

func setup(cmd *cobra.Command, opts *helpers.Options) (*helpers.Env, *gfx.Analyzer, string, error) {
	env, err := opts.Setup(cmd)
	if err != nil {
		return nil, nil, "", err
	}
	app, err := env.App()
	if err != nil {
		return nil, nil, "", err
	}
	return env, gfx.NewAnalyzer(env.Runner, env.Cmds, env.Logger), app, nil
}

func newResetCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the app's frame statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, analyzer, app, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if err := analyzer.Reset(cmd.Context(), app); err != nil {
				return err
			}
			_, err = fmt.Fprintln(env.Out, "reset done!")
			return err
		},
	}
}

func newInfoCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the raw gfxinfo dump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, _, app, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			raw, err := env.Runner.Execute(cmd.Context(), env.Cmds.GfxInfo(app))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(env.Out, raw)
			return err
		},
	}
}

func newHistCmd(opts *helpers.Options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "hist",
		Short: "Show the frame cost histogram and fps estimate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, helpers.AllFormats); err != nil {
				return err
			}
			env, analyzer, app, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			info, err := analyzer.Dump(cmd.Context(), app)
			if err != nil {
				return err
			}

			if format != string(helpers.FormatTable) {
				return env.Format(format, info.Frames)
			}
			if err := gfx.WriteHistogram(env.Out, info.Frames); err != nil {
				return err
			}
			_, err = fmt.Fprintf(env.Out, "\nfps: %d\n", info.FPS)
			return err
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.AllFormats)
	return cmd
}

func newFPSCmd(opts *helpers.Options) *cobra.Command {
	var (
		samples  int
		format   string
		interval *helpers.IntervalFlag
	)

	cmd := &cobra.Command{
		Use:   "fps",
		Short: "Sample the fps estimate until interrupted",
		Long: `Repeatedly reset the app's frame statistics, wait --interval and score the
frames rendered in between. Runs until Ctrl+C (or --samples is reached),
then prints a min/avg/max summary.

Interrupting may leave the app's statistics un-reset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, helpers.AllFormats); err != nil {
				return err
			}
			if samples < 0 {
				return fmt.Errorf("--samples cannot be negative")
			}
			env, analyzer, app, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			every := interval.Resolve(env.Config.Sampling.FPSInterval)
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "using Ctrl+C to stop sampling")

			var series []int
			for fps, err := range analyzer.Trend(cmd.Context(), app, every) {
				if err != nil {
					return err
				}
				series = append(series, fps)
				if format == string(helpers.FormatTable) {
					_, _ = fmt.Fprintln(env.Out, "fps", fps)
				}
				if samples > 0 && len(series) >= samples {
					break
				}
			}

			summary := gfx.Summarize(series)
			if format != string(helpers.FormatTable) {
				return env.Format(format, summary)
			}
			_, err = fmt.Fprintf(env.Out, "\nsamples: %d  min: %d  avg: %.1f  max: %d\n",
				summary.Samples, summary.Min, summary.Mean, summary.Max)
			return err
		},
	}

	interval = helpers.AddIntervalFlag(cmd.Flags(), "interval", constants.DefaultFPSInterval,
		"Seconds between reset and dump (default from config, 2s)")
	cmd.Flags().IntVarP(&samples, "samples", "n", 0, "Stop after N samples (0 runs until interrupted)")
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.AllFormats)

	return cmd
}
