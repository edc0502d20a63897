// Package meminfo implements the 'andperf meminfo' command family.
package meminfo

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/andperf/andperf/internal/cli/helpers"
	"github.com/andperf/andperf/internal/constants"
	"github.com/andperf/andperf/internal/meminfo"
)

// NewMeminfoCmd creates the meminfo command and its subcommands.
func NewMeminfoCmd(opts *helpers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meminfo",
		Short: "Inspect an app's memory usage",
	}

	cmd.AddCommand(newShowCmd(opts))
	cmd.AddCommand(newSummaryCmd(opts))
	cmd.AddCommand(newTrendCmd(opts))

	return cmd
}

func setup(cmd *cobra.Command, opts *helpers.Options) (*helpers.Env, *meminfo.Reader, string, error) {
	env, err := opts.Setup(cmd)
	if err != nil {
		return nil, nil, "", err
	}
	app, err := env.App()
	if err != nil {
		return nil, nil, "", err
	}
	return env, meminfo.NewReader(env.Runner, env.Cmds, env.Logger), app, nil
}

func newShowCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the raw meminfo dump",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, _, app, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			raw, err := env.Runner.Execute(cmd.Context(), env.Cmds.MemInfo(app))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(env.Out, raw)
			return err
		},
	}
}

func newSummaryCmd(opts *helpers.Options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Break the app summary down by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, helpers.AllFormats); err != nil {
				return err
			}
			env, reader, app, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			snap, err := reader.Dump(cmd.Context(), app)
			if err != nil {
				return err
			}

			if format != string(helpers.FormatTable) {
				return env.Format(format, snap)
			}
			if err := env.Format(format, snap.Breakdown()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(env.Out, "\nTOTAL: %.2fMB\n", snap.Total)
			return err
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.AllFormats)
	return cmd
}

// trendRow is one line of the trend output.
type trendRow struct {
	Index        int       `json:"index" yaml:"index" header:"#"`
	At           time.Time `json:"at" yaml:"at"`
	JavaHeap     float64   `json:"java_heap" yaml:"java_heap" header:"JAVA_HEAP"`
	NativeHeap   float64   `json:"native_heap" yaml:"native_heap" header:"NATIVE_HEAP"`
	Code         float64   `json:"code" yaml:"code" header:"CODE"`
	Stack        float64   `json:"stack" yaml:"stack" header:"STACK"`
	Graphics     float64   `json:"graphics" yaml:"graphics" header:"GRAPHICS"`
	PrivateOther float64   `json:"private_other" yaml:"private_other" header:"PRIVATE_OTHER"`
	System       float64   `json:"system" yaml:"system" header:"SYSTEM"`
	Total        float64   `json:"total" yaml:"total" header:"TOTAL"`
}

func newTrendRow(index int, snap *meminfo.Snapshot) trendRow {
	return trendRow{
		Index:        index,
		At:           time.Now(),
		JavaHeap:     snap.JavaHeap,
		NativeHeap:   snap.NativeHeap,
		Code:         snap.Code,
		Stack:        snap.Stack,
		Graphics:     snap.Graphics,
		PrivateOther: snap.PrivateOther,
		System:       snap.System,
		Total:        snap.Total,
	}
}

func newTrendCmd(opts *helpers.Options) *cobra.Command {
	var (
		samples int
		format  string
		period  *helpers.IntervalFlag
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Dump meminfo every --period until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, helpers.AllFormats); err != nil {
				return err
			}
			env, reader, app, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "using Ctrl+C to stop sampling")

			var rows []trendRow
			every := period.Resolve(env.Config.Sampling.MemInfoPeriod)
			for snap, err := range reader.Trend(cmd.Context(), app, every) {
				if err != nil {
					return err
				}
				rows = append(rows, newTrendRow(len(rows)+1, snap))
				if format == string(helpers.FormatTable) {
					_, _ = fmt.Fprintf(env.Out, "dumping %s meminfo.... %d, TOTAL: %.2fMB\n", app, len(rows), snap.Total)
				}
				if samples > 0 && len(rows) >= samples {
					break
				}
			}

			if format == string(helpers.FormatTable) {
				_, _ = fmt.Fprintln(env.Out)
			}
			return env.Format(format, rows)
		},
	}

	period = helpers.AddIntervalFlag(cmd.Flags(), "period", constants.DefaultMemInfoPeriod,
		"Seconds between dumps (default from config, 1s)")
	cmd.Flags().IntVarP(&samples, "samples", "n", 0, "Stop after N dumps (0 runs until interrupted)")
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.AllFormats)

	return cmd
}
