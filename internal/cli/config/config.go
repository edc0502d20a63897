// Package config implements the 'andperf config' command family.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andperf/andperf/internal/cli/helpers"
	"github.com/andperf/andperf/internal/config"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd(opts *helpers.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage andperf defaults",
		Long: `Manage the defaults stored in ~/.andperf/config.yaml.

Environment Variables:
  ANDPERF_CONFIG     Override the base directory (default: ~)
  ANDPERF_APP        Default app package
  ANDPERF_SYSTRACE   systrace.py location
  ANDPERF_ADB        adb executable
  ANDPERF_SERIAL     Device serial
  ANDPERF_LOG_LEVEL  Log level`,
	}

	cmd.AddCommand(newSetCmd(opts))
	cmd.AddCommand(newViewCmd(opts))

	return cmd
}

func loader(opts *helpers.Options) *config.Loader {
	if opts.Loader != nil {
		return opts.Loader
	}
	return config.NewLoader()
}

func newSetCmd(opts *helpers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value...",
		Short: "Persist one or more defaults",
		Long: fmt.Sprintf(`Persist one or more defaults.

Keys: %s`, strings.Join(config.Keys(), ", ")),
		Example: `  andperf config set app=com.example.app
  andperf config set systrace=~/sdk/platform-tools/systrace/systrace.py serial=emulator-5554`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := loader(opts)

			// Load the file without env overrides so they are not persisted.
			cfg, err := l.LoadFile()
			if err != nil {
				return err
			}
			if err := cfg.SetPairs(args); err != nil {
				return err
			}
			if err := l.Save(cfg); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", l.Path())
			return err
		},
	}
}

func newViewCmd(opts *helpers.Options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration: file values with environment
overrides applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, []helpers.OutputFormat{helpers.FormatYAML, helpers.FormatJSON}); err != nil {
				return err
			}

			l := loader(opts)
			cfg, err := l.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == string(helpers.FormatYAML) {
				if _, err := os.Stat(l.Path()); err != nil {
					_, _ = fmt.Fprintf(out, "# %s does not exist, showing defaults\n", l.Path())
				} else {
					_, _ = fmt.Fprintf(out, "# %s\n", l.Path())
				}
			}

			f, err := helpers.NewFormatter(helpers.OutputFormat(format))
			if err != nil {
				return err
			}
			return f.Format(cfg, out)
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatYAML, []helpers.OutputFormat{helpers.FormatYAML, helpers.FormatJSON})
	return cmd
}
