package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	configcmd "github.com/andperf/andperf/internal/cli/config"
	"github.com/andperf/andperf/internal/cli/device"
	"github.com/andperf/andperf/internal/cli/gfx"
	"github.com/andperf/andperf/internal/cli/helpers"
	"github.com/andperf/andperf/internal/cli/meminfo"
	"github.com/andperf/andperf/internal/cli/stat"
	"github.com/andperf/andperf/pkg/version"
)

// NewRootCmd builds the andperf command tree around opts.
func NewRootCmd(opts *helpers.Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "andperf",
		Short: "andperf - profile an Android app over adb",
		Long: `Profile an Android app from the command line.

andperf shells out to adb, pulls raw kernel and graphics counters from the
device and turns them into reports:
- stat-thread: which threads of the app are burning CPU
- gfx: frame cost histogram and a jank-adjusted fps estimate
- meminfo: memory breakdown and trend

Set a default app once with 'andperf config set app=<package>' or pass
--app on every call.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(stat.NewStatThreadCmd(opts))
	rootCmd.AddCommand(gfx.NewGfxCmd(opts))
	rootCmd.AddCommand(meminfo.NewMeminfoCmd(opts))
	rootCmd.AddCommand(device.Commands(opts)...)
	rootCmd.AddCommand(configcmd.NewConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if format != "text" {
				f, err := helpers.NewFormatter(helpers.OutputFormat(format))
				if err != nil {
					return err
				}
				return f.Format(info, cmd.OutOrStdout())
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "andperf version %s\n", info.Version)
			_, _ = fmt.Fprintf(out, "Git commit: %s\n", info.GitCommit)
			_, _ = fmt.Fprintf(out, "Build date: %s\n", info.BuildDate)
			_, _ = fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
			_, err := fmt.Fprintf(out, "Platform: %s\n", info.Platform)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "text", "Output format (text, json, yaml)")
	return cmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context, which ends sampling loops and waits.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd(&helpers.Options{}).ExecuteContext(ctx)
}
